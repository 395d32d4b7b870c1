package fst

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/blevesearch/vellum"
)

// Build serializes words (each mapped to its own ordinal, in sorted
// order) into an FST blob. vellum requires strictly increasing keys during
// insertion, so Build sorts a copy of words and skips duplicates.
func Build(words []string) ([]byte, error) {
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)

	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("fst: new builder: %w", err)
	}
	for i, w := range sorted {
		if i > 0 && sorted[i-1] == w {
			continue
		}
		if err := builder.Insert([]byte(w), uint64(i)); err != nil {
			return nil, fmt.Errorf("fst: insert %q: %w", w, err)
		}
	}
	if err := builder.Close(); err != nil {
		return nil, fmt.Errorf("fst: close builder: %w", err)
	}
	return buf.Bytes(), nil
}

// Dictionary is a read-only handle over a loaded FST blob.
type Dictionary struct {
	fst *vellum.FST
}

// Load parses a blob produced by Build. A nil/empty blob yields an empty
// Dictionary (no words indexed yet).
func Load(blob []byte) (*Dictionary, error) {
	if len(blob) == 0 {
		return &Dictionary{}, nil
	}
	f, err := vellum.Load(blob)
	if err != nil {
		return nil, fmt.Errorf("fst: load: %w", err)
	}
	return &Dictionary{fst: f}, nil
}

// Contains reports whether word is a member of the dictionary's word set
// (invariant: this equals membership in word_docids' key set, §4.2).
func (d *Dictionary) Contains(word string) (bool, error) {
	if d.fst == nil {
		return false, nil
	}
	_, found, err := d.fst.Get([]byte(word))
	return found, err
}

// PrefixWords returns every dictionary word starting with prefix, used to
// materialize word_prefix_docids and to enumerate prefix-match candidates
// at query time.
func (d *Dictionary) PrefixWords(prefix string) ([]string, error) {
	if d.fst == nil {
		return nil, nil
	}
	end := prefixUpperBound(prefix)
	it, err := d.fst.Iterator([]byte(prefix), end)
	if err == vellum.ErrIteratorDone {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fst: iterator: %w", err)
	}
	var words []string
	for err == nil {
		k, _ := it.Current()
		words = append(words, string(k))
		err = it.Next()
	}
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, fmt.Errorf("fst: iterate: %w", err)
	}
	return words, nil
}

// prefixUpperBound returns the smallest byte string that is
// lexicographically greater than every string with the given prefix, or
// nil if prefix is all 0xff bytes (meaning "no upper bound").
func prefixUpperBound(prefix string) []byte {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xff {
			out := make([]byte, i+1)
			copy(out, b)
			out[i]++
			return out
		}
	}
	return nil
}
