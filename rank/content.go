package rank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/model"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// ContentNode 是个性化排序节点：融合类别偏好、作者偏好与内容相似度。
//
// 内容相似度取候选与用户 like / request 过的图书（rctx.Liked）的平均相似度，
// 只计算在当前快照语料中的图书；没有可比对象时为 0。
type ContentNode struct {
	Snapshot *model.Snapshot
	Policy   Policy
}

func (n *ContentNode) Name() string        { return "rank.content" }
func (n *ContentNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ContentNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	var profile *core.UserProfile
	var liked []int64
	if rctx != nil {
		profile = rctx.Profile
		liked = rctx.Liked
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.Book == nil {
			continue
		}
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		cw := profile.CategoryWeight(it.Book.Category)
		aw := profile.AuthorWeight(it.Book.Author)
		sim := n.Snapshot.AverageSimilarity(it.ID, liked)

		it.Features[FeatureCategory] = cw
		it.Features[FeatureAuthor] = aw
		it.Features[FeatureSimilarity] = sim
		it.Score = n.Policy.CategoryWeight*cw + n.Policy.AuthorWeight*aw + n.Policy.SimilarityWeight*sim
		it.SetLabel(LabelReason, utils.Label{Value: n.Policy.Reason(profile, it.Book), Source: utils.SourceRank})
		out = append(out, it)
	}

	SortByScore(out)
	return out, nil
}
