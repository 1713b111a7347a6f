package model

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/vectorize"
)

// Observer 在每次成功刷新后被调用，用于打点。
type Observer func(elapsed time.Duration, corpusSize int)

// Manager 负责按需刷新并发布快照。并发安全。
//
// 并发的 Refresh 会被合并成一次构建（singleflight），所有调用方拿到同一版快照；
// 加入一个进行中的构建的调用方，看到的数据可能早于它自己的调用时刻，但不会早于该构建开始的时刻。
type Manager struct {
	books        core.BookRepository
	build        BuildOptions
	maxStaleness time.Duration
	logger       zerolog.Logger
	observer     Observer
	now          func() time.Time

	group   singleflight.Group
	current atomic.Pointer[Snapshot]
}

// Option 配置 Manager。
type Option func(*Manager)

// WithVectorizer 设置多文档语料的向量化参数。
func WithVectorizer(opts vectorize.Options) Option {
	return func(m *Manager) { m.build.Vectorizer = opts }
}

// WithWorkers 设置相似度矩阵的并发行数。
func WithWorkers(n int) Option {
	return func(m *Manager) { m.build.Workers = n }
}

// WithMaxStaleness 允许 Ensure 复用不超过 d 的旧快照；0 表示每次都重建。
func WithMaxStaleness(d time.Duration) Option {
	return func(m *Manager) { m.maxStaleness = d }
}

// WithLogger 设置日志。
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithObserver 设置刷新回调。
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithClock 替换时钟（测试用）。
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager 创建 Manager。初始快照为空模型。
func NewManager(books core.BookRepository, opts ...Option) *Manager {
	m := &Manager{
		books:  books,
		build:  BuildOptions{Vectorizer: vectorize.DefaultOptions()},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current 返回最近一次发布的快照；从未刷新过时返回空模型。
func (m *Manager) Current() *Snapshot {
	if s := m.current.Load(); s != nil {
		return s
	}
	return EmptySnapshot()
}

// Refresh 从仓储重建并发布新快照。
func (m *Manager) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, shared := m.group.Do("refresh", func() (any, error) {
		start := m.now()
		snap, err := Build(ctx, m.books, m.build)
		if err != nil {
			return nil, err
		}
		snap.BuiltAt = m.now()
		m.current.Store(snap)

		elapsed := snap.BuiltAt.Sub(start)
		m.logger.Debug().
			Int("corpus_size", snap.Len()).
			Int("vocabulary", snap.Space.Dim()).
			Dur("elapsed", elapsed).
			Msg("model refreshed")
		if m.observer != nil {
			m.observer(elapsed, snap.Len())
		}
		return snap, nil
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("model refresh failed")
		return nil, err
	}
	if shared {
		m.logger.Trace().Msg("model refresh shared with concurrent caller")
	}
	return v.(*Snapshot), nil
}

// Ensure 返回一版足够新的快照：未配置 MaxStaleness 时等价于 Refresh。
func (m *Manager) Ensure(ctx context.Context) (*Snapshot, error) {
	if m.maxStaleness > 0 {
		if s := m.current.Load(); s != nil && m.now().Sub(s.BuiltAt) <= m.maxStaleness {
			return s, nil
		}
	}
	return m.Refresh(ctx)
}
