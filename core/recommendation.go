package core

import "math"

// Recommendation 是推荐结果中的一项。
// Score 保留原始精度用于排序；对外展示用 RoundedScore。
type Recommendation struct {
	BookID int64   `json:"book_id"`
	Book   *Book   `json:"book,omitempty"`
	Score  float64 `json:"relevance_score"`
	Reason string  `json:"recommendation_reason"`
}

// RoundedScore 返回保留三位小数的分数。
func (r Recommendation) RoundedScore() float64 {
	return Round3(r.Score)
}

// SimilarBook 是相似图书结果中的一项。
type SimilarBook struct {
	BookID int64   `json:"book_id"`
	Book   *Book   `json:"book,omitempty"`
	Score  float64 `json:"similarity_score"`
}

// RoundedScore 返回保留三位小数的相似度。
func (s SimilarBook) RoundedScore() float64 {
	return Round3(s.Score)
}

// Round3 四舍五入到三位小数。
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
