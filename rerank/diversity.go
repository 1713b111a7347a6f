package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// Diversity 是多样性重排：同一类别（或作者）最多保留 MaxPerGroup 本，保持原有顺序。
// 分组来源优先级：
// - label[LabelKey].Value
// - Book.Category / Book.Author（LabelKey 为 "category" / "author" 时）
type Diversity struct {
	LabelKey    string // 默认 "category"
	MaxPerGroup int    // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "category"
	}
	limit := n.MaxPerGroup
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		group := groupOf(it, key)
		if group == "" {
			out = append(out, it)
			continue
		}
		if seen[group] >= limit {
			continue
		}
		seen[group]++
		out = append(out, it)
	}
	return out, nil
}

func groupOf(it *core.Item, key string) string {
	if v := it.LabelValue(key); v != "" {
		return v
	}
	if it.Book == nil {
		return ""
	}
	switch key {
	case "category":
		return it.Book.Category
	case "author":
		return it.Book.Author
	}
	return ""
}
