package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/recall"
)

// SufficientDataThreshold 是认为画像可靠所需的最少行为数。
const SufficientDataThreshold = 5

// topCategoryLimit 是统计中返回的类别数上限。
const topCategoryLimit = 5

// UserStats 是用户行为统计。
type UserStats struct {
	UserID            int64                        `json:"user_id"`
	Total             int                          `json:"total_interactions"`
	Breakdown         map[core.InteractionKind]int `json:"interaction_breakdown"`
	TopCategories     []CategoryCount              `json:"top_categories"`
	HasSufficientData bool                         `json:"has_sufficient_data"`
}

// CategoryCount 是某类别上的行为数。
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// UserStats 统计用户的行为：总数、按类型计数、行为最多的前 5 个类别。
// 已删除图书上的行为计入总数与类型计数，但不计入类别。
func (e *Engine) UserStats(ctx context.Context, userID int64) (*UserStats, error) {
	history, err := e.interactions.InteractionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions of user %d: %w", userID, err)
	}

	stats := &UserStats{
		UserID:        userID,
		Total:         len(history),
		Breakdown:     make(map[core.InteractionKind]int, len(core.InteractionKinds())),
		TopCategories: []CategoryCount{},
	}
	for _, k := range core.InteractionKinds() {
		stats.Breakdown[k] = 0
	}

	books := make(map[int64]*core.Book)
	categories := make(map[string]int)
	for _, in := range history {
		stats.Breakdown[in.Kind]++

		book, seen := books[in.BookID]
		if !seen {
			book, err = e.books.BookByID(ctx, in.BookID)
			if err != nil && !core.IsNotFound(err) {
				return nil, fmt.Errorf("load book %d: %w", in.BookID, err)
			}
			books[in.BookID] = book
		}
		if book != nil {
			categories[book.Category]++
		}
	}

	for c, n := range categories {
		stats.TopCategories = append(stats.TopCategories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(stats.TopCategories, func(i, j int) bool {
		a, b := stats.TopCategories[i], stats.TopCategories[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	if len(stats.TopCategories) > topCategoryLimit {
		stats.TopCategories = stats.TopCategories[:topCategoryLimit]
	}
	stats.HasSufficientData = stats.Total >= SufficientDataThreshold
	return stats, nil
}

// PopularBooks 返回最多 count 本热门可用图书（总行为数降序，同数按 ID 升序）。
func (e *Engine) PopularBooks(ctx context.Context, count int) ([]core.PopularBook, error) {
	hot := &recall.Hot{Books: e.books, Limit: count}
	items, err := hot.Recall(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]core.PopularBook, 0, len(items))
	for _, it := range items {
		out = append(out, core.PopularBook{Book: it.Book, InteractionCount: int(it.Score)})
	}
	return out, nil
}
