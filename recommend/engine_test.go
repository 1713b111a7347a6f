package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/rerank"
	"github.com/rushteam/bookrec/store"
)

var library = []*core.Book{
	{ID: 1, OwnerID: 100, Title: "The Hobbit", Author: "J.R.R. Tolkien", Category: "Fantasy",
		Description: "A hobbit goes on an adventure with dwarves and a dragon", Available: true},
	{ID: 2, OwnerID: 100, Title: "The Fellowship of the Ring", Author: "J.R.R. Tolkien", Category: "Fantasy",
		Description: "A hobbit carries the ring on a perilous adventure", Available: true},
	{ID: 3, OwnerID: 200, Title: "Dune", Author: "Frank Herbert", Category: "Science Fiction",
		Description: "Desert planet politics and spice", Available: true},
	{ID: 4, OwnerID: 200, Title: "Foundation", Author: "Isaac Asimov", Category: "Science Fiction",
		Description: "Psychohistory predicts the fall of a galactic empire", Available: true},
	{ID: 5, OwnerID: 300, Title: "Emma", Author: "Jane Austen", Category: "Classics",
		Description: "A young woman plays matchmaker in a village", Available: true},
	{ID: 6, OwnerID: 300, Title: "The Two Towers", Author: "J.R.R. Tolkien", Category: "Fantasy",
		Description: "The fellowship is broken and the ring journey continues", Available: false},
	{ID: 7, OwnerID: 9, Title: "The Silmarillion", Author: "J.R.R. Tolkien", Category: "Fantasy",
		Description: "Elves and the ancient history of middle earth", Available: true},
}

type fixture struct {
	repo   *store.Repository
	engine *Engine
}

func newFixture(t *testing.T, books []*core.Book, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	repo := store.NewRepository(kv)
	for _, b := range books {
		cp := *b
		require.NoError(t, repo.PutBook(ctx, &cp))
	}
	e, err := NewEngine(repo, repo, opts...)
	require.NoError(t, err)
	return &fixture{repo: repo, engine: e}
}

func (f *fixture) interact(t *testing.T, userID, bookID int64, kind core.InteractionKind) {
	t.Helper()
	require.NoError(t, f.repo.AddInteraction(context.Background(), &core.Interaction{UserID: userID, BookID: bookID, Kind: kind}))
}

func ids(recs []core.Recommendation) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.BookID)
	}
	return out
}

func TestGenerateRecommendations_Personalized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)
	f.interact(t, 9, 1, core.InteractionLike)
	f.interact(t, 9, 3, core.InteractionView)

	recs, err := f.engine.GenerateRecommendations(ctx, 9, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	// 已交互(1,3)、不可用(6)、自己拥有(7) 都不出现
	got := ids(recs)
	for _, excluded := range []int64{1, 3, 6, 7} {
		assert.NotContains(t, got, excluded)
	}
	// Tolkien 的 Fantasy 排第一
	assert.Equal(t, int64(2), recs[0].BookID)
	assert.Contains(t, recs[0].Reason, "you've shown interest in Fantasy books")
	assert.Contains(t, recs[0].Reason, "you've liked books by J.R.R. Tolkien")

	for i, r := range recs {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		if i > 0 {
			prev := recs[i-1]
			assert.True(t, prev.Score > r.Score || (prev.Score == r.Score && prev.BookID < r.BookID),
				"not ordered at %d", i)
		}
	}
}

func TestGenerateRecommendations_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)
	f.interact(t, 9, 1, core.InteractionLike)
	f.interact(t, 9, 5, core.InteractionRequest)

	first, err := f.engine.GenerateRecommendations(ctx, 9, 10)
	require.NoError(t, err)
	second, err := f.engine.GenerateRecommendations(ctx, 9, 10)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("recommendations changed between calls (-first +second):\n%s", diff)
	}
}

func TestGenerateRecommendations_CountBound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)
	f.interact(t, 9, 1, core.InteractionLike)

	for _, count := range []int{-1, 0} {
		recs, err := f.engine.GenerateRecommendations(ctx, 9, count)
		require.NoError(t, err)
		assert.Empty(t, recs)
		assert.NotNil(t, recs)
	}
	recs, err := f.engine.GenerateRecommendations(ctx, 9, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestGenerateRecommendations_OnlyDeletedHistoryFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)
	f.interact(t, 9, 4, core.InteractionLike)
	require.NoError(t, f.repo.DeleteBook(ctx, 4))

	recs, err := f.engine.GenerateRecommendations(ctx, 9, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	for _, r := range recs {
		assert.Equal(t, 0.5, r.Score)
	}
}

func TestScenarioA_ColdStartFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []*core.Book{
		{ID: 1, OwnerID: 50, Title: "Alpha", Author: "A", Category: "X", Available: true},
		{ID: 2, OwnerID: 50, Title: "Beta", Author: "B", Category: "Y", Available: true},
		{ID: 3, OwnerID: 50, Title: "Gamma", Author: "C", Category: "Z", Available: true},
	})
	f.interact(t, 60, 2, core.InteractionView)
	f.interact(t, 61, 2, core.InteractionLike)
	f.interact(t, 62, 2, core.InteractionView)
	f.interact(t, 60, 1, core.InteractionView)

	recs, err := f.engine.GenerateRecommendations(ctx, 99, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 3}, ids(recs))
	for _, r := range recs {
		assert.Equal(t, 0.5, r.Score)
	}
	assert.Equal(t, "Popular book with 3 interactions", recs[0].Reason)
	assert.Equal(t, "Popular book with 0 interactions", recs[2].Reason)
}

func TestScenarioB_CategoryContribution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []*core.Book{
		{ID: 1, OwnerID: 50, Title: "Liked novel", Author: "Writer One", Category: "Fiction", Available: true},
		{ID: 2, OwnerID: 50, Title: "Candidate story", Author: "Writer Two", Category: "Fiction", Available: true},
	})
	f.interact(t, 9, 1, core.InteractionLike)

	recs, err := f.engine.GenerateRecommendations(ctx, 9, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	sims, err := f.engine.ContentSimilarity(ctx, 2, []int64{1})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, recs[0].Score-0.3*sims[1], 1e-9)
	assert.Equal(t, "Recommended because you've shown interest in Fiction books", recs[0].Reason)
}

func TestScenarioC_EmptyCorpus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []*core.Book{{ID: 1, Title: "Hidden", Available: false}})

	require.NoError(t, f.engine.Refresh(ctx))
	assert.Zero(t, f.engine.Snapshot().Len())

	sims, err := f.engine.ContentSimilarity(ctx, 1, []int64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, sims)

	recs, err := f.engine.GenerateRecommendations(ctx, 9, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestScenarioD_IdenticalText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []*core.Book{
		{ID: 1, Title: "Gardening Basics", Author: "Green", Category: "Home", Description: "soil seeds water", Available: true},
		{ID: 2, Title: "Gardening Basics", Author: "Green", Category: "Home", Description: "soil seeds water", Available: true},
		{ID: 3, Title: "Quantum Mechanics", Author: "Dirac", Category: "Physics", Description: "operators spin", Available: true},
	})

	sims, err := f.engine.ContentSimilarity(ctx, 1, []int64{2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sims[2], 1e-9)
	assert.Greater(t, sims[2], sims[3])
}

func TestContentSimilarity_SymmetryAndSelfExclusion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)

	ab, err := f.engine.ContentSimilarity(ctx, 1, []int64{2})
	require.NoError(t, err)
	ba, err := f.engine.ContentSimilarity(ctx, 2, []int64{1})
	require.NoError(t, err)
	assert.InDelta(t, ab[2], ba[1], 1e-12)

	self, err := f.engine.ContentSimilarity(ctx, 1, []int64{1})
	require.NoError(t, err)
	assert.NotContains(t, self, int64(1))

	// 不可用图书不在语料中
	unavailable, err := f.engine.ContentSimilarity(ctx, 6, []int64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, unavailable)
}

func TestSimilarBooks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)

	res, err := f.engine.SimilarBooks(ctx, 1, []int64{1, 2, 3, 4, 5, 6}, 3)
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", res.Reference.Title)
	require.Len(t, res.Items, 3)
	assert.Equal(t, int64(2), res.Items[0].BookID)
	require.NotNil(t, res.Items[0].Book)
	assert.Equal(t, "The Fellowship of the Ring", res.Items[0].Book.Title)
	for i, it := range res.Items {
		assert.NotEqual(t, int64(1), it.BookID)
		assert.NotEqual(t, int64(6), it.BookID)
		if i > 0 {
			assert.GreaterOrEqual(t, res.Items[i-1].Score, it.Score)
		}
	}

	_, err = f.engine.SimilarBooks(ctx, 404, []int64{1}, 3)
	assert.True(t, core.IsNotFound(err))

	empty, err := f.engine.SimilarBooks(ctx, 1, nil, 3)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestSimilarBooksFor_ExcludesOwned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)

	res, err := f.engine.SimilarBooksFor(ctx, 100, 7, 10)
	require.NoError(t, err)
	for _, it := range res.Items {
		assert.NotContains(t, []int64{1, 2, 6, 7}, it.BookID)
	}
	assert.Len(t, res.Items, 3)
}

func TestBuildUserProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)
	f.interact(t, 9, 1, core.InteractionLike)
	f.interact(t, 9, 3, core.InteractionLike)

	p, err := f.engine.BuildUserProfile(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Fantasy": 0.5, "Science Fiction": 0.5}, p.Categories)
}

func TestUserStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)
	f.interact(t, 9, 1, core.InteractionView)
	f.interact(t, 9, 1, core.InteractionLike)
	f.interact(t, 9, 2, core.InteractionRequest)
	f.interact(t, 9, 3, core.InteractionView)
	f.interact(t, 9, 5, core.InteractionSearch)

	stats, err := f.engine.UserStats(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.True(t, stats.HasSufficientData)
	assert.Equal(t, map[core.InteractionKind]int{
		core.InteractionView: 2, core.InteractionLike: 1, core.InteractionRequest: 1, core.InteractionSearch: 1,
	}, stats.Breakdown)
	want := []CategoryCount{{"Fantasy", 3}, {"Classics", 1}, {"Science Fiction", 1}}
	if diff := cmp.Diff(want, stats.TopCategories); diff != "" {
		t.Errorf("top categories (-want +got):\n%s", diff)
	}

	none, err := f.engine.UserStats(ctx, 1234)
	require.NoError(t, err)
	assert.False(t, none.HasSufficientData)
	assert.Empty(t, none.TopCategories)
}

func TestPopularBooks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)
	f.interact(t, 1, 5, core.InteractionView)
	f.interact(t, 2, 5, core.InteractionView)
	f.interact(t, 1, 3, core.InteractionView)

	top, err := f.engine.PopularBooks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(5), top[0].Book.ID)
	assert.Equal(t, 2, top[0].InteractionCount)
	assert.Equal(t, int64(3), top[1].Book.ID)
}

func TestValidateCount(t *testing.T) {
	tests := []struct {
		count int
		ok    bool
	}{
		{0, false}, {1, true}, {50, true}, {51, false}, {-3, false},
	}
	for _, tt := range tests {
		err := ValidateCount(tt.count)
		if tt.ok {
			assert.NoError(t, err, "count %d", tt.count)
		} else {
			assert.True(t, core.IsInvalidInput(err), "count %d", tt.count)
		}
	}
}

func TestNewEngine_InvalidPolicy(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	repo := store.NewRepository(kv)
	_, err := NewEngine(repo, repo, WithPolicy(Policy{CategoryWeight: 0.7, AuthorWeight: 0.3, SimilarityWeight: 0.3}))
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewEngine(nil, repo)
	assert.Error(t, err)
}

func TestWithExtensions(t *testing.T) {
	ctx := context.Background()
	ext := &pipeline.Pipeline{Nodes: []pipeline.Node{&rerank.Diversity{LabelKey: "author", MaxPerGroup: 1}}}
	f := newFixture(t, library, WithExtensions(ext))
	f.interact(t, 9, 5, core.InteractionLike)

	recs, err := f.engine.GenerateRecommendations(ctx, 9, 10)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, r := range recs {
		assert.False(t, seen[r.Book.Author], "author %s repeated", r.Book.Author)
		seen[r.Book.Author] = true
	}
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	f := newFixture(t, library, WithMetrics(m))
	f.interact(t, 9, 1, core.InteractionLike)

	_, err := f.engine.GenerateRecommendations(ctx, 9, 5)
	require.NoError(t, err)
	_, err = f.engine.GenerateRecommendations(ctx, 77, 5)
	require.NoError(t, err)
	_, err = f.engine.SimilarBooks(ctx, 1, []int64{2}, 1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recommendations.WithLabelValues(PathPersonalized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recommendations.WithLabelValues(PathFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimilarQueries))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.CorpusSize))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RefreshDuration))
}

func TestEngine_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, library)
	f.interact(t, 9, 1, core.InteractionLike)

	want, err := f.engine.GenerateRecommendations(ctx, 9, 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			got, err := f.engine.GenerateRecommendations(ctx, 9, 10)
			if err != nil {
				errs <- err
				return
			}
			if diff := cmp.Diff(want, got); diff != "" {
				errs <- errors.New(diff)
			}
		}()
		go func() {
			defer wg.Done()
			if err := f.engine.Refresh(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

type brokenInteractions struct{ core.InteractionRepository }

func (brokenInteractions) InteractionsByUser(context.Context, int64) ([]*core.Interaction, error) {
	return nil, errors.New("connection refused")
}

func TestGenerateRecommendations_RepositoryError(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	repo := store.NewRepository(kv)
	e, err := NewEngine(repo, brokenInteractions{repo})
	require.NoError(t, err)

	_, err = e.GenerateRecommendations(context.Background(), 1, 5)
	assert.ErrorContains(t, err, "connection refused")
}
