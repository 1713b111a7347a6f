package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/core"
)

type stubBooks struct {
	core.BookRepository
	books []*core.Book
	err   error
}

func (s stubBooks) AvailableBooks(context.Context) ([]*core.Book, error) {
	return s.books, s.err
}

func TestBuild(t *testing.T) {
	repo := stubBooks{books: []*core.Book{
		{ID: 3, OwnerID: 9, Title: "Dune", Author: "Frank Herbert", Category: "Science Fiction", Available: true},
		{ID: 1, OwnerID: 8, Title: "The Hobbit!", Author: "J.R.R. Tolkien", Category: "Fantasy", Description: "There and back again.", Available: true},
		{ID: 2, Title: "Hidden", Available: false},
	}}

	c, err := Build(context.Background(), repo)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3}, c.BookIDs)
	assert.Equal(t, []string{
		"the hobbit j r r tolkien fantasy there and back again",
		"dune frank herbert science fiction",
	}, c.Documents)
	assert.Equal(t, map[int64]int{1: 0, 3: 1}, c.Index)

	b, ok := c.Book(3)
	require.True(t, ok)
	assert.Equal(t, int64(9), b.OwnerID)

	_, ok = c.Position(2)
	assert.False(t, ok, "unavailable books are excluded")
}

func TestBuild_Deterministic(t *testing.T) {
	books := []*core.Book{
		{ID: 5, Title: "E", Available: true},
		{ID: 2, Title: "B", Available: true},
		{ID: 9, Title: "I", Available: true},
	}
	a := FromBooks(books)
	b := FromBooks([]*core.Book{books[2], books[0], books[1]})
	assert.Equal(t, a, b)
}

func TestBuild_Empty(t *testing.T) {
	c, err := Build(context.Background(), stubBooks{})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestBuild_RepositoryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Build(context.Background(), stubBooks{err: boom})
	assert.ErrorIs(t, err, boom)
}
