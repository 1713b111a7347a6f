// Package rank 对候选打分并排序：有画像时按内容打分，冷启动时按热度。
package rank

import (
	"fmt"
	"strings"

	"github.com/rushteam/bookrec/core"
)

// Policy 是打分策略常量，均可配置。
//
//	score = CategoryWeight * 类别偏好
//	      + AuthorWeight   * 作者偏好
//	      + SimilarityWeight * 与喜欢集合的平均内容相似度
type Policy struct {
	CategoryWeight   float64 `koanf:"category_weight" validate:"gte=0,lte=1"`
	AuthorWeight     float64 `koanf:"author_weight" validate:"gte=0,lte=1"`
	SimilarityWeight float64 `koanf:"similarity_weight" validate:"gte=0,lte=1"`

	// ReasonThreshold 偏好超过该值才写进推荐理由
	ReasonThreshold float64 `koanf:"reason_threshold" validate:"gte=0,lte=1"`

	// FallbackScore 冷启动热门列表的固定分数
	FallbackScore float64 `koanf:"fallback_score" validate:"gte=0,lte=1"`
}

// DefaultPolicy 返回默认策略：0.4 / 0.3 / 0.3，理由阈值 0.1，冷启动分 0.5。
func DefaultPolicy() Policy {
	return Policy{
		CategoryWeight:   0.4,
		AuthorWeight:     0.3,
		SimilarityWeight: 0.3,
		ReasonThreshold:  0.1,
		FallbackScore:    0.5,
	}
}

// Validate 保证分数落在 [0, 1]：三个权重之和不能超过 1。
func (p Policy) Validate() error {
	if p.CategoryWeight < 0 || p.AuthorWeight < 0 || p.SimilarityWeight < 0 {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "policy: weights must be non-negative")
	}
	if sum := p.CategoryWeight + p.AuthorWeight + p.SimilarityWeight; sum > 1+1e-9 {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("policy: blend weights sum to %.3f, must not exceed 1", sum))
	}
	if p.FallbackScore < 0 || p.FallbackScore > 1 {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "policy: fallback score must be in [0, 1]")
	}
	return nil
}

// Reason 生成个性化推荐理由。
func (p Policy) Reason(profile *core.UserProfile, book *core.Book) string {
	var parts []string
	if profile.CategoryWeight(book.Category) > p.ReasonThreshold {
		parts = append(parts, fmt.Sprintf("you've shown interest in %s books", book.Category))
	}
	if profile.AuthorWeight(book.Author) > p.ReasonThreshold {
		parts = append(parts, fmt.Sprintf("you've liked books by %s", book.Author))
	}
	if len(parts) == 0 {
		parts = append(parts, "based on your reading preferences")
	}
	return "Recommended because " + strings.Join(parts, " and ")
}

// PopularReason 生成冷启动推荐理由。
func PopularReason(count int) string {
	return fmt.Sprintf("Popular book with %d interactions", count)
}
