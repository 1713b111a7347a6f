package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Candidates 是推荐候选集召回源：可用图书，排除用户自己拥有的、以及用户交互过的。
// 同时实现 Source 与 Node，可直接作为 Pipeline 第一个节点。
type Candidates struct {
	Books core.BookRepository
}

func (r *Candidates) Name() string        { return "recall.candidates" }
func (r *Candidates) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，忽略上游 items。
func (r *Candidates) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。返回顺序与仓储一致（图书 ID 升序）。
func (r *Candidates) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Books == nil || rctx == nil {
		return nil, nil
	}

	excluded := make([]int64, 0, len(rctx.Interacted))
	for id := range rctx.Interacted {
		excluded = append(excluded, id)
	}
	books, err := r.Books.BooksExcluding(ctx, rctx.UserID, excluded)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	out := make([]*core.Item, 0, len(books))
	for _, b := range books {
		it := core.NewItem(b)
		it.PutLabel(LabelRecallSource, utils.Label{Value: "candidates", Source: utils.SourceRecall})
		out = append(out, it)
	}
	return out, nil
}
