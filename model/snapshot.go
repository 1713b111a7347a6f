// Package model 管理内容相似度模型的生命周期。
//
// 每次 Refresh 都从图书仓储重新构建一个不可变的 Snapshot（语料 → TF-IDF → 相似度矩阵），
// 构建完成后原子发布；读者拿到的永远是完整的一版，不会看到构建到一半的状态。
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/corpus"
	"github.com/rushteam/bookrec/similarity"
	"github.com/rushteam/bookrec/vectorize"
)

// Snapshot 是一次拟合的只读结果，可在多个 goroutine 间共享。
type Snapshot struct {
	Corpus  *corpus.Corpus
	Space   *vectorize.Space
	Matrix  *similarity.Matrix
	BuiltAt time.Time
}

// EmptySnapshot 返回空模型：所有相似度查询都得到空结果。
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Corpus: corpus.Empty(),
		Space:  vectorize.Fit(nil, vectorize.DefaultOptions()),
		Matrix: similarity.Empty(),
	}
}

// BuildOptions 是构建参数。
type BuildOptions struct {
	Vectorizer vectorize.Options
	Workers    int // 相似度矩阵并发行数，<= 0 为 GOMAXPROCS
}

// Build 从仓储构建一版新快照。
func Build(ctx context.Context, books core.BookRepository, opts BuildOptions) (*Snapshot, error) {
	c, err := corpus.Build(ctx, books)
	if err != nil {
		return nil, err
	}
	return FromCorpus(ctx, c, opts)
}

// FromCorpus 在已有语料上拟合向量并计算相似度矩阵。
func FromCorpus(ctx context.Context, c *corpus.Corpus, opts BuildOptions) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	space := vectorize.Fit(c.Documents, vectorize.OptionsFor(c.Len(), opts.Vectorizer))
	matrix, err := similarity.Compute(ctx, space, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("compute similarity: %w", err)
	}
	return &Snapshot{
		Corpus:  c,
		Space:   space,
		Matrix:  matrix,
		BuiltAt: time.Now(),
	}, nil
}

// Len 返回语料规模。
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.Corpus.Len()
}

// Contains 判断图书是否在本快照的语料中。
func (s *Snapshot) Contains(bookID int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.Corpus.Position(bookID)
	return ok
}

// Book 返回快照中的图书元数据。
func (s *Snapshot) Book(bookID int64) (core.Book, bool) {
	if s == nil {
		return core.Book{}, false
	}
	return s.Corpus.Book(bookID)
}

// Similarity 返回 bookID 与每个候选的相似度。
// 只包含在语料中的候选，且永远不包含 bookID 自身；
// bookID 不在语料、候选为空或语料为空时返回空 map。
func (s *Snapshot) Similarity(bookID int64, candidateIDs []int64) map[int64]float64 {
	out := make(map[int64]float64)
	if s == nil || len(candidateIDs) == 0 || s.Len() == 0 {
		return out
	}
	ref, ok := s.Corpus.Position(bookID)
	if !ok {
		return out
	}
	for _, id := range candidateIDs {
		if id == bookID {
			continue
		}
		if pos, ok := s.Corpus.Position(id); ok {
			out[id] = s.Matrix.At(ref, pos)
		}
	}
	return out
}

// AverageSimilarity 返回 bookID 与 refs 中（在语料里的）图书的平均相似度，没有可比对象时为 0。
func (s *Snapshot) AverageSimilarity(bookID int64, refs []int64) float64 {
	sims := s.Similarity(bookID, refs)
	if len(sims) == 0 {
		return 0
	}
	n := 0
	// 按 refs 顺序累加，保证浮点结果可复现
	var sum float64
	for _, id := range refs {
		if v, ok := sims[id]; ok {
			sum += v
			delete(sims, id)
			n++
		}
	}
	return sum / float64(n)
}
