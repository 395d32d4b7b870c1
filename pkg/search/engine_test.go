package search_test

import (
	"testing"

	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/indexing"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/search"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMovies(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.Open(t.TempDir(), "movies")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	s, err := idx.Settings()
	require.NoError(t, err)
	s.FilterableAttributes = []string{"genre"}
	s.SortableAttributes = []string{"year"}
	require.NoError(t, idx.UpdateSettings(s))

	docs := []types.Document{
		{"id": "1", "title": "The Matrix", "overview": "A hacker discovers the nature of reality.", "genre": "scifi", "year": 1999.0},
		{"id": "2", "title": "The Matrix Reloaded", "overview": "Neo fights more agents in the matrix.", "genre": "scifi", "year": 2003.0},
		{"id": "3", "title": "Clueless", "overview": "A rich teenager navigates high school.", "genre": "comedy", "year": 1995.0},
	}
	require.NoError(t, idx.Update(func(tx *kv.WriteTx) error {
		_, err := indexing.New(idx).Run(tx, []indexing.Operation{{
			TaskUID:   1,
			Kind:      types.TaskKindDocumentAdditionOrUpdate,
			Documents: docs,
		}})
		return err
	}))
	return idx
}

func runSearch(t *testing.T, idx *index.Index, q search.Query) *search.Result {
	t.Helper()
	var res *search.Result
	require.NoError(t, idx.View(func(tx *kv.ReadTx) error {
		var err error
		res, err = search.Search(tx, idx, q)
		return err
	}))
	return res
}

func titles(res *search.Result) []string {
	out := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		out[i], _ = h.Document["title"].(string)
	}
	return out
}

func TestSearchExactWordMatch(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{Q: "matrix"})
	assert.ElementsMatch(t, []string{"The Matrix", "The Matrix Reloaded"}, titles(res))
	assert.Equal(t, 2, res.EstimatedTotalHits)
}

func TestSearchTypoTolerance(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{Q: "matrx"})
	assert.Contains(t, titles(res), "The Matrix")
}

func TestSearchFilterNarrowsResults(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{Q: "matrix", Filter: "genre = comedy"})
	assert.Empty(t, res.Hits)
}

func TestSearchEmptyQueryReturnsEverythingMatchingFilter(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{Filter: "genre = comedy"})
	assert.Equal(t, []string{"Clueless"}, titles(res))
}

func TestSearchSortOverride(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{
		Q:    "matrix",
		Sort: []types.RankingRule{{Kind: types.RankingDesc, Field: "year"}},
	})
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "The Matrix Reloaded", res.Hits[0].Document["title"])
}

func TestSearchHighlight(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{
		Q:                     "hacker",
		AttributesToHighlight: []string{"overview"},
	})
	require.Len(t, res.Hits, 1)
	assert.Contains(t, res.Hits[0].Document["overview"], "<em>hacker</em>")
}

func TestSearchFacetDistribution(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{Facets: []string{"genre"}})
	require.NotNil(t, res.FacetDistribution)
	assert.Equal(t, uint64(2), res.FacetDistribution["genre"]["scifi"])
	assert.Equal(t, uint64(1), res.FacetDistribution["genre"]["comedy"])
}

func TestSearchPagination(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{Q: "matrix", Limit: 1})
	assert.Len(t, res.Hits, 1)
	assert.Equal(t, 2, res.EstimatedTotalHits)
}

func TestSearchMatchingStrategyAllRequiresEveryWord(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{Q: "matrix reloaded nonexistentword", MatchingStrategy: types.MatchingStrategyAll})
	assert.Empty(t, res.Hits)
}

func TestSearchMatchingStrategyLastBroadensMatch(t *testing.T) {
	idx := setupMovies(t)
	res := runSearch(t, idx, search.Query{Q: "matrix reloaded nonexistentword", MatchingStrategy: types.MatchingStrategyLast})
	assert.NotEmpty(t, res.Hits)
}
