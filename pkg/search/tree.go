package search

import (
	"github.com/lexidb/lexidb/pkg/fst"
	"github.com/lexidb/lexidb/pkg/indexing"
	"github.com/lexidb/lexidb/pkg/types"
)

// interpretationKind classifies how a candidate word relates to the
// original query token, used later by the typo/exactness ranking rules.
type interpretationKind int

const (
	interpExact interpretationKind = iota
	interpPrefix
	interpTypo
	interpSynonym
)

// interpretation is one leaf of the query tree: a concrete dictionary
// word standing in for queryPosition of the original query.
type interpretation struct {
	word          string
	queryPosition int
	kind          interpretationKind
	edits         int // Levenshtein distance for interpKind == interpTypo
}

// queryTerm collects every interpretation derived from one query token.
type queryTerm struct {
	original string
	position int
	leaves   []interpretation
}

// buildQueryTree tokenizes q and, for each resulting token, enumerates
// its interpretations: the exact word, typo variants (bounded by
// settings.TypoTolerance), a synonym expansion, and — for the last token
// only, since it may still be mid-word as the user types — every
// dictionary word it is a prefix of.
//
// Concatenation ("new york" <-> "newyork") and split interpretations are
// not generated: scope cut, tracked as a follow-up.
func buildQueryTree(q string, settings types.Settings, dict *fst.Dictionary) ([]queryTerm, error) {
	tokens := indexing.Tokenize(q, settings)
	terms := make([]queryTerm, 0, len(tokens))

	for i, tok := range tokens {
		term := queryTerm{original: tok.Word, position: i}
		term.leaves = append(term.leaves, interpretation{word: tok.Word, queryPosition: i, kind: interpExact})

		maxEdits := settings.TypoTolerance.AllowedTypos(tok.Word, "")
		if maxEdits > 0 {
			variants, err := dict.TypoWords(tok.Word, uint8(maxEdits))
			if err != nil {
				return nil, err
			}
			for _, v := range variants {
				if v == tok.Word {
					continue
				}
				term.leaves = append(term.leaves, interpretation{word: v, queryPosition: i, kind: interpTypo, edits: editDistanceHint(tok.Word, v)})
			}
		}

		if syns, ok := settings.Synonyms[tok.Word]; ok {
			for _, s := range syns {
				term.leaves = append(term.leaves, interpretation{word: s, queryPosition: i, kind: interpSynonym})
			}
		}

		if i == len(tokens)-1 {
			prefixed, err := dict.PrefixWords(tok.Word)
			if err != nil {
				return nil, err
			}
			for _, w := range prefixed {
				if w == tok.Word {
					continue
				}
				term.leaves = append(term.leaves, interpretation{word: w, queryPosition: i, kind: interpPrefix})
			}
		}

		terms = append(terms, term)
	}

	return terms, nil
}

// editDistanceHint reports how many typos a later ranking step should
// charge a typo interpretation. TypoWords already bounded the match by
// maxEdits; this recomputes the exact count for tie-breaking between a
// 1-edit and a 2-edit candidate, using the same minimal-edit-distance
// definition the dictionary's Levenshtein automaton enforces.
func editDistanceHint(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
