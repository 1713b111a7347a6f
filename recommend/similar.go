package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/bookrec/core"
)

// SimilarResult 是相似图书查询结果。
type SimilarResult struct {
	Reference *core.Book         `json:"reference_book"`
	Items     []core.SimilarBook `json:"similar_books"`
}

// SimilarBooks 刷新模型后，按内容相似度降序（同分按 ID 升序）返回 candidateIDs 中
// 最多 count 本图书。参照书不存在时返回 core.ErrBookNotFound；
// 参照书或候选不在语料（不可用）时它们不会出现在结果里。
func (e *Engine) SimilarBooks(ctx context.Context, bookID int64, candidateIDs []int64, count int) (*SimilarResult, error) {
	ref, err := e.books.BookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load reference book %d: %w", bookID, err)
	}
	return e.similar(ctx, ref, candidateIDs, count)
}

// SimilarBooksFor 以 requesterID 的视角查询相似图书：候选为全部可用图书，
// 排除参照书本身和 requester 自己拥有的图书。requesterID 为 0 时不排除任何拥有者。
func (e *Engine) SimilarBooksFor(ctx context.Context, requesterID, bookID int64, count int) (*SimilarResult, error) {
	ref, err := e.books.BookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load reference book %d: %w", bookID, err)
	}
	candidates, err := e.books.BooksExcluding(ctx, requesterID, []int64{bookID})
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	ids := make([]int64, 0, len(candidates))
	for _, b := range candidates {
		ids = append(ids, b.ID)
	}
	return e.similar(ctx, ref, ids, count)
}

func (e *Engine) similar(ctx context.Context, ref *core.Book, candidateIDs []int64, count int) (*SimilarResult, error) {
	e.metrics.recordSimilar()
	res := &SimilarResult{Reference: ref, Items: []core.SimilarBook{}}
	if count <= 0 {
		return res, nil
	}

	snap, err := e.manager.Ensure(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh model: %w", err)
	}

	for id, score := range snap.Similarity(ref.ID, candidateIDs) {
		sb := core.SimilarBook{BookID: id, Score: score}
		if meta, ok := snap.Book(id); ok {
			sb.Book = &meta
		}
		res.Items = append(res.Items, sb)
	}
	sort.Slice(res.Items, func(i, j int) bool {
		a, b := res.Items[i], res.Items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.BookID < b.BookID
	})
	if len(res.Items) > count {
		res.Items = res.Items[:count]
	}
	return res, nil
}
