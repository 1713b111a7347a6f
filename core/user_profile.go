package core

// UserProfile 是由行为历史推导出的用户画像（不持久化）。
//
//	维度          作用
//	Categories    类别偏好，权重和为 1（或为空）
//	Authors       作者偏好，权重和为 1（或为空）
//	InteractionCount  参与计算的行为条数
//
// 没有任何行为的用户得到空画像，推荐侧据此进入冷启动。
type UserProfile struct {
	UserID           int64              `json:"user_id"`
	Categories       map[string]float64 `json:"categories"`
	Authors          map[string]float64 `json:"authors"`
	InteractionCount int                `json:"interaction_count"`
}

// NewUserProfile 创建一个空画像。
func NewUserProfile(userID int64) *UserProfile {
	return &UserProfile{
		UserID:     userID,
		Categories: make(map[string]float64),
		Authors:    make(map[string]float64),
	}
}

// IsEmpty 表示冷启动信号：没有任何类别或作者偏好。
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return len(p.Categories) == 0 && len(p.Authors) == 0
}

// CategoryWeight 获取类别权重。
func (p *UserProfile) CategoryWeight(category string) float64 {
	if p == nil || p.Categories == nil {
		return 0
	}
	return p.Categories[category]
}

// AuthorWeight 获取作者权重。
func (p *UserProfile) AuthorWeight(author string) float64 {
	if p == nil || p.Authors == nil {
		return 0
	}
	return p.Authors[author]
}
