// Package corpus 从图书仓储构建 TF-IDF 语料：每本可用图书一篇文档。
package corpus

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/text"
)

// Corpus 是一次构建的只读语料快照。
//
//	Documents[i] 与 BookIDs[i] 平行；Index 是 BookIDs 的反查表；
//	Meta 保存构建时刻的图书元数据，供打分与解释使用。
type Corpus struct {
	Documents []string
	BookIDs   []int64
	Index     map[int64]int
	Meta      map[int64]core.Book
}

// Empty 返回空语料。
func Empty() *Corpus {
	return &Corpus{
		Documents: []string{},
		BookIDs:   []int64{},
		Index:     map[int64]int{},
		Meta:      map[int64]core.Book{},
	}
}

// Len 返回文档数。
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Documents)
}

// Position 返回图书在语料中的位置。
func (c *Corpus) Position(bookID int64) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.Index[bookID]
	return i, ok
}

// Book 返回快照里的图书元数据。
func (c *Corpus) Book(bookID int64) (core.Book, bool) {
	if c == nil {
		return core.Book{}, false
	}
	b, ok := c.Meta[bookID]
	return b, ok
}

// Build 读取全部可用图书，按 ID 升序组装语料。
func Build(ctx context.Context, books core.BookRepository) (*Corpus, error) {
	list, err := books.AvailableBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load available books: %w", err)
	}
	return FromBooks(list), nil
}

// FromBooks 由图书列表组装语料。不可用的图书被跳过；重复 ID 只保留第一次出现。
func FromBooks(list []*core.Book) *Corpus {
	sorted := make([]*core.Book, 0, len(list))
	for _, b := range list {
		if b != nil && b.Available {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c := Empty()
	for _, b := range sorted {
		if _, dup := c.Index[b.ID]; dup {
			continue
		}
		c.Index[b.ID] = len(c.BookIDs)
		c.BookIDs = append(c.BookIDs, b.ID)
		c.Documents = append(c.Documents, Document(b))
		c.Meta[b.ID] = *b
	}
	return c
}

// Document 拼接标题、作者、类别、描述（非空时）并归一化。
func Document(b *core.Book) string {
	parts := []string{b.Title, b.Author, b.Category}
	if b.Description != "" {
		parts = append(parts, b.Description)
	}
	return text.Preprocess(strings.Join(parts, " "))
}
