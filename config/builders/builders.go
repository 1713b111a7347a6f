// Package builders 注册内置的扩展 Node，供 YAML 配置驱动。
//
//	pipeline:
//	  name: bookrec-ext
//	  nodes:
//	    - type: filter.expr
//	      config:
//	        expr: 'book.condition != "poor"'
//	    - type: filter.blacklist
//	      config:
//	        book_ids: [13, 42]
//	    - type: rerank.diversity
//	      config:
//	        label_key: category
//	        max_per_group: 2
package builders

import (
	"fmt"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/rerank"
)

func init() {
	config.Register("filter.expr", BuildExprFilterNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildExprFilterNode 构建 CEL 表达式过滤节点，表达式为 false 的候选被过滤。
func BuildExprFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	expr := conv.ConfigGet(cfg, "expr", "")
	if expr == "" {
		return nil, fmt.Errorf("expr not found")
	}
	f, err := filter.NewExprFilter(expr)
	if err != nil {
		return nil, fmt.Errorf("filter.expr: %w", err)
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// BuildBlacklistNode 构建只含内存黑名单的过滤节点。
func BuildBlacklistNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return BlacklistNodeBuilder(nil)(cfg)
}

// BlacklistNodeBuilder 返回支持从 Store 读取黑名单（config.key）的构建器；
// 入口在拿到 Store 后用它覆盖默认注册。
func BlacklistNodeBuilder(s core.Store) pipeline.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		ids := conv.SliceAnyToInt64(cfg["book_ids"])
		key := conv.ConfigGet(cfg, "key", "")
		if key != "" && s == nil {
			return nil, fmt.Errorf("filter.blacklist: key %q requires a store", key)
		}
		var adapter *filter.StoreAdapter
		if s != nil {
			adapter = filter.NewStoreAdapter(s)
		}
		return &filter.FilterNode{Filters: []filter.Filter{filter.NewBlacklistFilter(ids, adapter, key)}}, nil
	}
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	labelKey := conv.ConfigGet(cfg, "label_key", "category")
	if labelKey == "" {
		labelKey = "category"
	}
	return &rerank.Diversity{
		LabelKey:    labelKey,
		MaxPerGroup: int(conv.ConfigGetInt64(cfg, "max_per_group", 1)),
	}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n <= 0 {
		return nil, fmt.Errorf("rerank.topn: n must be positive")
	}
	return &rerank.TopNNode{N: int(n)}, nil
}
