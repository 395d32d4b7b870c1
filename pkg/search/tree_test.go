package search

import (
	"testing"

	"github.com/lexidb/lexidb/pkg/fst"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDict(t *testing.T, words []string) *fst.Dictionary {
	t.Helper()
	blob, err := fst.Build(words)
	require.NoError(t, err)
	dict, err := fst.Load(blob)
	require.NoError(t, err)
	return dict
}

func leafWords(term queryTerm) []string {
	var out []string
	for _, l := range term.leaves {
		out = append(out, l.word)
	}
	return out
}

func TestBuildQueryTreeExactAlwaysIncluded(t *testing.T) {
	dict := buildDict(t, []string{"matrix", "reloaded"})
	terms, err := buildQueryTree("matrix", types.DefaultSettings(), dict)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Contains(t, leafWords(terms[0]), "matrix")
}

func TestBuildQueryTreeTypoVariants(t *testing.T) {
	dict := buildDict(t, []string{"matrix"})
	terms, err := buildQueryTree("matrx", types.DefaultSettings(), dict)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Contains(t, leafWords(terms[0]), "matrix")
}

func TestBuildQueryTreeLastTokenGetsPrefixExpansion(t *testing.T) {
	dict := buildDict(t, []string{"reloaded", "reload", "matrix"})
	terms, err := buildQueryTree("matrix rel", types.DefaultSettings(), dict)
	require.NoError(t, err)
	require.Len(t, terms, 2)

	// first token is not the tail: no prefix expansion beyond itself.
	assert.Equal(t, []string{"matrix"}, leafWords(terms[0]))

	last := leafWords(terms[1])
	assert.Contains(t, last, "reloaded")
	assert.Contains(t, last, "reload")
}

func TestBuildQueryTreeSynonymExpansion(t *testing.T) {
	settings := types.DefaultSettings()
	settings.Synonyms = map[string][]string{"film": {"movie"}}
	dict := buildDict(t, []string{"film", "movie"})

	terms, err := buildQueryTree("film", settings, dict)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Contains(t, leafWords(terms[0]), "movie")
}
