package fst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, words []string) *Dictionary {
	t.Helper()
	blob, err := Build(words)
	require.NoError(t, err)
	d, err := Load(blob)
	require.NoError(t, err)
	return d
}

func TestContains(t *testing.T) {
	d := mustLoad(t, []string{"apple", "apricot", "banana"})

	ok, err := d.Contains("apple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Contains("grape")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrefixWords(t *testing.T) {
	d := mustLoad(t, []string{"apple", "apricot", "banana", "app"})

	got, err := d.PrefixWords("ap")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"apple", "apricot", "app"}, got)
}

func TestEmptyDictionary(t *testing.T) {
	d := mustLoad(t, nil)

	ok, err := d.Contains("anything")
	require.NoError(t, err)
	assert.False(t, ok)

	words, err := d.PrefixWords("a")
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestTypoWordsExact(t *testing.T) {
	d := mustLoad(t, []string{"saturday"})

	words, err := d.TypoWords("saturday", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"saturday"}, words)

	words, err = d.TypoWords("sundayy", 0)
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestTypoWordsOneEdit(t *testing.T) {
	d := mustLoad(t, []string{"saturday"})

	words, err := d.TypoWords("satuday", 1)
	require.NoError(t, err)
	assert.Contains(t, words, "saturday")

	words, err = d.TypoWords("sutruday", 1)
	require.NoError(t, err)
	assert.Empty(t, words, "two edits should not match under a one-edit budget")
}

func TestTypoWordsTwoEdits(t *testing.T) {
	d := mustLoad(t, []string{"saturday"})

	words, err := d.TypoWords("sutruday", 2)
	require.NoError(t, err)
	assert.Contains(t, words, "saturday")
}
