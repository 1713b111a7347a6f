package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：召回 → 过滤 → 排序 → 重排。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// OfKind 返回指定阶段的 Node（保持原顺序）。
func (p *Pipeline) OfKind(kinds ...Kind) []Node {
	if p == nil {
		return nil
	}
	var out []Node
	for _, n := range p.Nodes {
		for _, k := range kinds {
			if n.Kind() == k {
				out = append(out, n)
				break
			}
		}
	}
	return out
}
