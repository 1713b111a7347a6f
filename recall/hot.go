package recall

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Hot 是热门召回源：可用图书按总行为数降序（同分 ID 升序），最多 Limit 本。
// 每个 item 的 Score 为行为数，并带 interaction_count label。
type Hot struct {
	Books core.BookRepository
	Limit int
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Hot) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Books == nil || r.Limit <= 0 {
		return nil, nil
	}

	ranked, err := r.Books.PopularityRank(ctx, r.Limit)
	if err != nil {
		return nil, fmt.Errorf("popularity rank: %w", err)
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, pb := range ranked {
		it := core.NewItem(pb.Book)
		it.Score = float64(pb.InteractionCount)
		it.PutLabel(LabelRecallSource, utils.Label{Value: "hot", Source: utils.SourceRecall})
		it.SetLabel(LabelInteractionCount, utils.Label{Value: strconv.Itoa(pb.InteractionCount), Source: utils.SourceRecall})
		out = append(out, it)
	}
	return out, nil
}
