package fst

import (
	"fmt"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
)

// TypoWords returns every dictionary word within maxEdits Levenshtein
// edits of word, walking the FST with a Levenshtein automaton rather than
// scanning the whole dictionary. maxEdits of 0 degenerates to an exact
// membership check.
func (d *Dictionary) TypoWords(word string, maxEdits uint8) ([]string, error) {
	if d.fst == nil {
		return nil, nil
	}
	if maxEdits == 0 {
		ok, err := d.Contains(word)
		if err != nil || !ok {
			return nil, err
		}
		return []string{word}, nil
	}

	dfa, err := levenshtein.New(word, maxEdits)
	if err != nil {
		return nil, fmt.Errorf("fst: build levenshtein automaton for %q: %w", word, err)
	}

	it, err := d.fst.Search(dfa, nil, nil)
	if err == vellum.ErrIteratorDone {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fst: search %q: %w", word, err)
	}
	var words []string
	for err == nil {
		k, _ := it.Current()
		words = append(words, string(k))
		err = it.Next()
	}
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, fmt.Errorf("fst: iterate %q: %w", word, err)
	}
	return words, nil
}
