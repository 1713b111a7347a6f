// Package profile 把用户的行为历史聚合成类别、作者两张归一化偏好表。
package profile

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/core"
)

// Weights 是各行为类型的权重。未知类型按 Default 计。
type Weights struct {
	View    float64 `koanf:"view" validate:"gte=0"`
	Like    float64 `koanf:"like" validate:"gte=0"`
	Request float64 `koanf:"request" validate:"gte=0"`
	Search  float64 `koanf:"search" validate:"gte=0"`
	Default float64 `koanf:"default" validate:"gte=0"`
}

// DefaultWeights 返回默认权重：view 1.0、like 2.0、request 3.0、search 0.5。
func DefaultWeights() Weights {
	return Weights{View: 1.0, Like: 2.0, Request: 3.0, Search: 0.5, Default: 1.0}
}

// Of 返回某一行为类型的权重。
func (w Weights) Of(kind core.InteractionKind) float64 {
	switch kind {
	case core.InteractionView:
		return w.View
	case core.InteractionLike:
		return w.Like
	case core.InteractionRequest:
		return w.Request
	case core.InteractionSearch:
		return w.Search
	default:
		return w.Default
	}
}

// Builder 构建用户画像。
type Builder struct {
	Books        core.BookRepository
	Interactions core.InteractionRepository
	Weights      Weights
}

// NewBuilder 使用默认权重创建 Builder。
func NewBuilder(books core.BookRepository, interactions core.InteractionRepository) *Builder {
	return &Builder{Books: books, Interactions: interactions, Weights: DefaultWeights()}
}

// Build 读取用户的全部历史并构建画像。
func (b *Builder) Build(ctx context.Context, userID int64) (*core.UserProfile, error) {
	history, err := b.Interactions.InteractionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions of user %d: %w", userID, err)
	}
	return b.FromHistory(ctx, userID, history)
}

// FromHistory 用已加载的历史构建画像。引用已删除图书的记录被静默跳过；
// InteractionCount 是参与计算的全部记录条数。
func (b *Builder) FromHistory(ctx context.Context, userID int64, history []*core.Interaction) (*core.UserProfile, error) {
	p := core.NewUserProfile(userID)
	p.InteractionCount = len(history)
	if len(history) == 0 {
		return p, nil
	}

	// 同一本书只查一次；nil 表示已删除
	books := make(map[int64]*core.Book)
	categories := newTally()
	authors := newTally()

	for _, in := range history {
		if in == nil {
			continue
		}
		book, seen := books[in.BookID]
		if !seen {
			book, err := b.Books.BookByID(ctx, in.BookID)
			if err != nil && !core.IsNotFound(err) {
				return nil, fmt.Errorf("load book %d: %w", in.BookID, err)
			}
			books[in.BookID] = book
		}
		book = books[in.BookID]
		if book == nil {
			continue
		}

		w := b.Weights.Of(in.Kind)
		categories.add(book.Category, w)
		authors.add(book.Author, w)
	}

	p.Categories = categories.normalize()
	p.Authors = authors.normalize()
	return p, nil
}

// tally 按首次出现顺序累加，保证浮点求和顺序固定。
type tally struct {
	keys   []string
	scores map[string]float64
}

func newTally() *tally {
	return &tally{scores: make(map[string]float64)}
}

func (t *tally) add(key string, w float64) {
	if _, ok := t.scores[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.scores[key] += w
}

func (t *tally) normalize() map[string]float64 {
	var total float64
	for _, k := range t.keys {
		total += t.scores[k]
	}
	out := make(map[string]float64, len(t.keys))
	if total <= 0 {
		return out
	}
	for _, k := range t.keys {
		if v := t.scores[k]; v > 0 {
			out[k] = v / total
		}
	}
	return out
}
