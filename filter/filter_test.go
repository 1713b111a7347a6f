package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/store"
)

func book(id, owner int64, available bool) *core.Item {
	return core.NewItem(&core.Book{ID: id, OwnerID: owner, Available: available, Condition: core.ConditionGood})
}

func TestFilters(t *testing.T) {
	rctx := &core.RecommendContext{UserID: 7, Interacted: map[int64]struct{}{3: {}}}
	tests := []struct {
		name   string
		filter Filter
		item   *core.Item
		want   bool
	}{
		{"available kept", AvailabilityFilter{}, book(1, 2, true), false},
		{"unavailable dropped", AvailabilityFilter{}, book(1, 2, false), true},
		{"missing book dropped", AvailabilityFilter{}, &core.Item{ID: 1}, true},
		{"owned dropped", OwnerFilter{}, book(1, 7, true), true},
		{"other owner kept", OwnerFilter{}, book(1, 8, true), false},
		{"interacted dropped", InteractedFilter{}, book(3, 8, true), true},
		{"fresh kept", InteractedFilter{}, book(4, 8, true), false},
		{"excluded id", ExcludeFilter{IDs: map[int64]struct{}{5: {}}}, book(5, 8, true), true},
		{"blacklisted", NewBlacklistFilter([]int64{9}, nil, ""), book(9, 8, true), true},
		{"not blacklisted", NewBlacklistFilter([]int64{9}, nil, ""), book(10, 8, true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.ShouldFilter(context.Background(), rctx, tt.item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter(`book.condition != "poor" && user.interaction_count >= 1`)
	if err != nil {
		t.Fatal(err)
	}
	rctx := &core.RecommendContext{UserID: 1, Profile: &core.UserProfile{InteractionCount: 2}}

	poor := core.NewItem(&core.Book{ID: 1, Condition: core.ConditionPoor})
	good := core.NewItem(&core.Book{ID: 2, Condition: core.ConditionGood})

	if drop, _ := f.ShouldFilter(context.Background(), rctx, poor); !drop {
		t.Error("poor condition should be filtered")
	}
	if drop, _ := f.ShouldFilter(context.Background(), rctx, good); drop {
		t.Error("good condition should be kept")
	}

	if _, err := NewExprFilter("book.title +"); err == nil {
		t.Error("expected compile error")
	}
}

type flaky struct{}

func (flaky) Name() string { return "flaky" }
func (flaky) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("boom")
}

func TestFilterNode(t *testing.T) {
	items := []*core.Item{book(1, 2, true), book(2, 2, false), nil, book(3, 2, true)}
	rctx := &core.RecommendContext{UserID: 9}

	lenient := &FilterNode{Filters: []Filter{flaky{}, AvailabilityFilter{}}}
	out, err := lenient.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 3 {
		t.Errorf("lenient node kept %v", out)
	}

	strict := &FilterNode{Filters: []Filter{flaky{}}, Strict: true}
	out, err = strict.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("strict node should drop items whose filter errors, kept %d", len(out))
	}
}

func TestBlacklistFromStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	adapter := NewStoreAdapter(kv)

	f := NewBlacklistFilter(nil, adapter, "ops:blacklist")
	// key 不存在视为空黑名单
	if drop, err := f.ShouldFilter(ctx, nil, book(4, 1, true)); err != nil || drop {
		t.Fatalf("missing key: drop=%v err=%v", drop, err)
	}

	if err := adapter.PutBlacklist(ctx, "ops:blacklist", []int64{4}); err != nil {
		t.Fatal(err)
	}
	if drop, err := f.ShouldFilter(ctx, nil, book(4, 1, true)); err != nil || !drop {
		t.Fatalf("blacklisted: drop=%v err=%v", drop, err)
	}

	if err := kv.Set(ctx, "ops:broken", []byte("{")); err != nil {
		t.Fatal(err)
	}
	broken := NewBlacklistFilter(nil, adapter, "ops:broken")
	if _, err := broken.ShouldFilter(ctx, nil, book(4, 1, true)); err == nil {
		t.Error("expected decode error")
	}
}
