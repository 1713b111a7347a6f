package core

import "time"

// Condition 是图书品相。
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// Book 是推荐引擎读取的图书快照，数据源在 BookRepository。
// 引擎只读，不会修改或持久化。
type Book struct {
	ID          int64     `json:"id" yaml:"id"`
	OwnerID     int64     `json:"owner_id" yaml:"owner_id"`
	Title       string    `json:"title" yaml:"title"`
	Author      string    `json:"author" yaml:"author"`
	ISBN        string    `json:"isbn,omitempty" yaml:"isbn"`
	Category    string    `json:"category" yaml:"category"`
	Condition   Condition `json:"condition" yaml:"condition"`
	Description string    `json:"description,omitempty" yaml:"description"` // 可为空
	Available   bool      `json:"available" yaml:"available"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}
