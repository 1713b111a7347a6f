package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

func shelf() []*core.Item {
	mk := func(id int64, category, author string) *core.Item {
		return core.NewItem(&core.Book{ID: id, Category: category, Author: author})
	}
	return []*core.Item{
		mk(1, "Fantasy", "Tolkien"),
		mk(2, "Fantasy", "Tolkien"),
		mk(3, "History", "Beard"),
		mk(4, "Fantasy", "Pratchett"),
		mk(5, "", ""),
	}
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDiversity(t *testing.T) {
	tests := []struct {
		name string
		node *Diversity
		want []int64
	}{
		{"default category one each", &Diversity{}, []int64{1, 3, 5}},
		{"category two each", &Diversity{MaxPerGroup: 2}, []int64{1, 2, 3, 5}},
		{"author one each", &Diversity{LabelKey: "author"}, []int64{1, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.node.Process(context.Background(), nil, shelf())
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !equal(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiversity_LabelOverridesBook(t *testing.T) {
	items := shelf()
	items[0].PutLabel("series", utils.Label{Value: "middle-earth"})
	items[1].PutLabel("series", utils.Label{Value: "middle-earth"})
	out, err := (&Diversity{LabelKey: "series"}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ids(out), []int64{1, 3, 4, 5}; !equal(got, want) {
		t.Errorf("Process() = %v, want %v", got, want)
	}
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 5}, {-1, 5}, {2, 2}, {5, 5}, {9, 5},
	}
	for _, tt := range tests {
		out, err := (&TopNNode{N: tt.n}).Process(context.Background(), nil, shelf())
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != tt.want {
			t.Errorf("N=%d: got %d items, want %d", tt.n, len(out), tt.want)
		}
	}
}
