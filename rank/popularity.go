package rank

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// PopularityNode 是冷启动排序节点：按全站总行为数降序（同数按 ID 升序），
// 每一项给固定分数 Score。
type PopularityNode struct {
	Interactions core.InteractionRepository
	Score        float64
}

func (n *PopularityNode) Name() string        { return "rank.popularity" }
func (n *PopularityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *PopularityNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	counts, err := n.Interactions.InteractionCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load interaction counts: %w", err)
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		c := counts[it.ID]
		it.Features[FeatureInteractionCount] = float64(c)
		it.Score = n.Score
		it.SetLabel(LabelReason, utils.Label{Value: PopularReason(c), Source: utils.SourceRank})
		out = append(out, it)
	}

	SortBy(out, func(it *core.Item) float64 { return it.Features[FeatureInteractionCount] })
	return out, nil
}
