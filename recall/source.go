package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Source 表示一个可复用的召回源（候选集 / 热门 / ...）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// 召回阶段写入的 Label key。
const (
	LabelRecallSource     = "recall_source"
	LabelInteractionCount = "interaction_count"
)
