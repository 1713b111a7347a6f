package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// AvailabilityFilter 过滤掉不可用（或缺少图书数据）的候选。
type AvailabilityFilter struct{}

func (AvailabilityFilter) Name() string { return "filter.availability" }

func (AvailabilityFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	return item == nil || item.Book == nil || !item.Book.Available, nil
}

// OwnerFilter 过滤掉请求用户自己拥有的图书。
type OwnerFilter struct{}

func (OwnerFilter) Name() string { return "filter.owner" }

func (OwnerFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil || item.Book == nil || rctx == nil {
		return false, nil
	}
	return item.Book.OwnerID == rctx.UserID, nil
}

// InteractedFilter 过滤掉用户已经交互过的图书（任意行为类型）。
type InteractedFilter struct{}

func (InteractedFilter) Name() string { return "filter.interacted" }

func (InteractedFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx.HasInteracted(item.ID), nil
}

// ExcludeFilter 过滤掉固定 ID 集合（例如相似书查询里的参照书本身）。
type ExcludeFilter struct {
	IDs map[int64]struct{}
}

func (f ExcludeFilter) Name() string { return "filter.exclude" }

func (f ExcludeFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := f.IDs[item.ID]
	return ok, nil
}
