package main

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	t.Setenv("BOOKREC_LOG__LEVEL", "disabled")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--seed", "testdata/seed.yaml"}, args...))
	require.NoError(t, root.Execute(), errOut.String())
	return out.Bytes()
}

func TestRecommendCmd(t *testing.T) {
	var got struct {
		UserID          int64 `json:"user_id"`
		Count           int   `json:"count"`
		Recommendations []struct {
			BookID int64   `json:"book_id"`
			Score  float64 `json:"relevance_score"`
			Reason string  `json:"recommendation_reason"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(run(t, "recommend", "--user", "20", "-n", "3"), &got))

	require.Equal(t, 3, got.Count)
	assert.Equal(t, int64(2), got.Recommendations[0].BookID)
	assert.Contains(t, got.Recommendations[0].Reason, "Fantasy")
	for _, r := range got.Recommendations {
		assert.NotEqual(t, int64(1), r.BookID)
		assert.NotEqual(t, int64(5), r.BookID)
	}
}

func TestRecommendCmd_ColdStart(t *testing.T) {
	var got struct {
		Recommendations []struct {
			BookID int64   `json:"book_id"`
			Score  float64 `json:"relevance_score"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(run(t, "recommend", "--user", "99"), &got))
	require.NotEmpty(t, got.Recommendations)
	assert.Equal(t, int64(3), got.Recommendations[0].BookID)
	for _, r := range got.Recommendations {
		assert.Equal(t, 0.5, r.Score)
	}
}

func TestSimilarCmd(t *testing.T) {
	var got struct {
		Reference struct {
			Title string `json:"title"`
		} `json:"reference_book"`
		Items []struct {
			BookID int64 `json:"book_id"`
		} `json:"similar_books"`
	}
	require.NoError(t, json.Unmarshal(run(t, "similar", "--book", "1", "-n", "2"), &got))
	assert.Equal(t, "The Hobbit", got.Reference.Title)
	require.Len(t, got.Items, 2)
	assert.Equal(t, int64(2), got.Items[0].BookID)
}

func TestStatsAndProfileCmd(t *testing.T) {
	var stats struct {
		Total int  `json:"total_interactions"`
		OK    bool `json:"has_sufficient_data"`
	}
	require.NoError(t, json.Unmarshal(run(t, "stats", "--user", "20"), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.False(t, stats.OK)

	var profile struct {
		Categories map[string]float64 `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(run(t, "profile", "--user", "20"), &profile))
	assert.Equal(t, map[string]float64{"Fantasy": 1}, profile.Categories)
}

func TestRefreshCmd(t *testing.T) {
	var got struct {
		CorpusSize int `json:"corpus_size"`
	}
	require.NoError(t, json.Unmarshal(run(t, "refresh"), &got))
	assert.Equal(t, 4, got.CorpusSize)
}

func TestRecommendCmd_InvalidCount(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--seed", "testdata/seed.yaml", "recommend", "--user", "1", "-n", "99"})
	assert.Error(t, root.Execute())
}
