package core

import "time"

// InteractionKind 是用户行为类型。
type InteractionKind string

const (
	InteractionView    InteractionKind = "view"
	InteractionLike    InteractionKind = "like"
	InteractionRequest InteractionKind = "request"
	InteractionSearch  InteractionKind = "search"
)

// InteractionKinds 返回所有合法的行为类型（固定顺序）。
func InteractionKinds() []InteractionKind {
	return []InteractionKind{InteractionView, InteractionLike, InteractionRequest, InteractionSearch}
}

// Valid 判断行为类型是否合法。
func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionView, InteractionLike, InteractionRequest, InteractionSearch:
		return true
	}
	return false
}

// Positive 表示强正向信号（like / request），用于内容相似度的"喜欢集合"。
func (k InteractionKind) Positive() bool {
	return k == InteractionLike || k == InteractionRequest
}

// Interaction 是一条用户-图书行为记录。
type Interaction struct {
	ID        int64           `json:"id" yaml:"id"`
	UserID    int64           `json:"user_id" yaml:"user_id"`
	BookID    int64           `json:"book_id" yaml:"book_id"`
	Kind      InteractionKind `json:"interaction_type" yaml:"interaction_type"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
}
