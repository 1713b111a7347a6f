package rank

import (
	"sort"

	"github.com/rushteam/bookrec/core"
)

// 排序阶段写入的 Label / Feature key。
const (
	LabelReason = "reason"

	FeatureCategory         = "category_pref"
	FeatureAuthor           = "author_pref"
	FeatureSimilarity       = "content_similarity"
	FeatureInteractionCount = "interaction_count"
)

// SortByScore 按 Score 降序排序，同分按图书 ID 升序，保证结果可复现。
func SortByScore(items []*core.Item) {
	SortBy(items, func(it *core.Item) float64 { return it.Score })
}

// SortBy 按 key 降序排序，同分按图书 ID 升序。
func SortBy(items []*core.Item, key func(*core.Item) float64) {
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := key(items[i]), key(items[j])
		if ki != kj {
			return ki > kj
		}
		return items[i].ID < items[j].ID
	})
}
