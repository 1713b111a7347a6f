// Package recommend 是推荐引擎的门面：把模型快照、用户画像与 Pipeline 组装成
// 个性化推荐、相似图书、画像与统计等查询。
//
// 每次相似度相关的查询都先确保模型是新的（默认每次调用都重建），
// 再在一版不可变快照上计算，因此并发调用之间互不干扰。
package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/model"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/profile"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

// MaxCount 是单次请求允许的最大数量。
const MaxCount = 50

// Policy 是打分策略。
type Policy = rank.Policy

// DefaultPolicy 返回默认打分策略。
func DefaultPolicy() Policy { return rank.DefaultPolicy() }

// Engine 是推荐引擎，并发安全。
type Engine struct {
	books        core.BookRepository
	interactions core.InteractionRepository

	manager   *model.Manager
	profiles  *profile.Builder
	policy    Policy
	ext       *pipeline.Pipeline
	logger    zerolog.Logger
	metrics   *Metrics
	modelOpts []model.Option
}

// Option 配置 Engine。
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithWeights 设置画像的行为权重。
func WithWeights(w profile.Weights) Option {
	return func(e *Engine) { e.profiles.Weights = w }
}

// WithModelOptions 透传模型管理参数（向量化、并发、允许的陈旧度）。
func WithModelOptions(opts ...model.Option) Option {
	return func(e *Engine) { e.modelOpts = append(e.modelOpts, opts...) }
}

// WithExtensions 挂载运营配置的扩展节点：filter 阶段的节点插在内置过滤之后，
// rerank / postprocess 阶段的节点插在截断之前。其余阶段的节点被忽略。
func WithExtensions(p *pipeline.Pipeline) Option {
	return func(e *Engine) { e.ext = p }
}

// NewEngine 创建推荐引擎。
func NewEngine(books core.BookRepository, interactions core.InteractionRepository, opts ...Option) (*Engine, error) {
	if books == nil || interactions == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "engine: repositories are required")
	}
	e := &Engine{
		books:        books,
		interactions: interactions,
		profiles:     profile.NewBuilder(books, interactions),
		policy:       rank.DefaultPolicy(),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.policy.Validate(); err != nil {
		return nil, err
	}

	mopts := []model.Option{
		model.WithLogger(e.logger),
		model.WithObserver(e.metrics.observeRefresh),
	}
	e.manager = model.NewManager(books, append(mopts, e.modelOpts...)...)
	return e, nil
}

// Refresh 立即重建模型。
func (e *Engine) Refresh(ctx context.Context) error {
	_, err := e.manager.Refresh(ctx)
	return err
}

// Snapshot 返回当前发布的模型快照。
func (e *Engine) Snapshot() *model.Snapshot {
	return e.manager.Current()
}

// GenerateRecommendations 为用户生成最多 count 条推荐。
//
// 有画像时按 类别偏好 / 作者偏好 / 与喜欢集合的内容相似度 加权打分；
// 没有画像（或语料为空）时退化为热门列表，分数固定为 Policy.FallbackScore。
// 候选永远排除不可用、用户自己拥有、以及用户交互过的图书。
// count <= 0 返回空列表。
func (e *Engine) GenerateRecommendations(ctx context.Context, userID int64, count int) ([]core.Recommendation, error) {
	if count <= 0 {
		e.metrics.recordRecommendation(PathEmpty)
		return []core.Recommendation{}, nil
	}

	var (
		snap    *model.Snapshot
		history []*core.Interaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := e.manager.Ensure(gctx)
		if err != nil {
			return fmt.Errorf("refresh model: %w", err)
		}
		snap = s
		return nil
	})
	g.Go(func() error {
		h, err := e.interactions.InteractionsByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("load interactions of user %d: %w", userID, err)
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p, err := e.profiles.FromHistory(ctx, userID, history)
	if err != nil {
		return nil, err
	}
	rctx := newContext(userID, p, history)

	path := PathPersonalized
	var ranker pipeline.Node = &rank.ContentNode{Snapshot: snap, Policy: e.policy}
	if rctx.ColdStart() || snap.Len() == 0 {
		path = PathFallback
		ranker = &rank.PopularityNode{Interactions: e.interactions, Score: e.policy.FallbackScore}
	}

	items, err := e.recommendPipeline(ranker, count).Run(ctx, rctx, nil)
	if err != nil {
		return nil, fmt.Errorf("recommend for user %d: %w", userID, err)
	}

	out := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		out = append(out, core.Recommendation{
			BookID: it.ID,
			Book:   it.Book,
			Score:  it.Score,
			Reason: it.LabelValue(rank.LabelReason),
		})
	}
	if len(out) == 0 {
		path = PathEmpty
	}
	e.metrics.recordRecommendation(path)
	e.logger.Debug().
		Int64("user_id", userID).
		Str("path", path).
		Int("corpus_size", snap.Len()).
		Int("history", len(history)).
		Int("results", len(out)).
		Msg("recommendations generated")
	return out, nil
}

func (e *Engine) recommendPipeline(ranker pipeline.Node, count int) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&recall.Candidates{Books: e.books},
		&filter.FilterNode{
			Filters: []filter.Filter{filter.AvailabilityFilter{}, filter.OwnerFilter{}, filter.InteractedFilter{}},
			Strict:  true,
		},
	}
	nodes = append(nodes, e.ext.OfKind(pipeline.KindFilter)...)
	nodes = append(nodes, ranker)
	nodes = append(nodes, e.ext.OfKind(pipeline.KindReRank, pipeline.KindPostProcess)...)
	nodes = append(nodes, &rerank.TopNNode{N: count})
	return &pipeline.Pipeline{Nodes: nodes}
}

// newContext 由历史构建请求上下文：交互过的全部图书，以及 like / request 过的图书（升序去重）。
func newContext(userID int64, p *core.UserProfile, history []*core.Interaction) *core.RecommendContext {
	rctx := &core.RecommendContext{
		UserID:     userID,
		Profile:    p,
		Interacted: make(map[int64]struct{}, len(history)),
	}
	liked := make(map[int64]struct{})
	for _, in := range history {
		if in == nil {
			continue
		}
		rctx.Interacted[in.BookID] = struct{}{}
		if in.Kind.Positive() {
			if _, ok := liked[in.BookID]; !ok {
				liked[in.BookID] = struct{}{}
				rctx.Liked = append(rctx.Liked, in.BookID)
			}
		}
	}
	sort.Slice(rctx.Liked, func(i, j int) bool { return rctx.Liked[i] < rctx.Liked[j] })
	return rctx
}

// BuildUserProfile 构建用户画像。
func (e *Engine) BuildUserProfile(ctx context.Context, userID int64) (*core.UserProfile, error) {
	return e.profiles.Build(ctx, userID)
}

// ContentSimilarity 刷新模型后返回 bookID 与各候选的内容相似度（不含 bookID 自身）。
func (e *Engine) ContentSimilarity(ctx context.Context, bookID int64, candidateIDs []int64) (map[int64]float64, error) {
	snap, err := e.manager.Ensure(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh model: %w", err)
	}
	return snap.Similarity(bookID, candidateIDs), nil
}

// ValidateCount 校验请求数量在 [1, MaxCount] 内。
func ValidateCount(count int) error {
	if count < 1 || count > MaxCount {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("count must be between 1 and %d, got %d", MaxCount, count))
	}
	return nil
}
