package core

import "github.com/rushteam/bookrec/pkg/utils"

// RecommendContext 承载用户画像与排除集合，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID int64

	// Profile 是本次请求构建的用户画像；为空或 IsEmpty 时走冷启动
	Profile *UserProfile

	// Interacted 是用户交互过的图书（任意类型），候选集需排除
	Interacted map[int64]struct{}

	// Liked 是用户 like / request 过的图书 ID（去重、升序）
	Liked []int64

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数
	Params map[string]any
}

// HasInteracted 判断用户是否与某本书交互过。
func (rctx *RecommendContext) HasInteracted(bookID int64) bool {
	if rctx == nil || rctx.Interacted == nil {
		return false
	}
	_, ok := rctx.Interacted[bookID]
	return ok
}

// ColdStart 表示该用户没有可用画像。
func (rctx *RecommendContext) ColdStart() bool {
	return rctx == nil || rctx.Profile.IsEmpty()
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
