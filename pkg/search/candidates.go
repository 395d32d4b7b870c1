package search

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// leafHit pairs one interpretation with the posting bitmap backing it.
type leafHit struct {
	leaf   interpretation
	bitmap *roaring.Bitmap
}

// termBitmap is everything the ranking stage needs to know about how one
// query term matched across the candidate set: the union of every
// interpretation's postings, and the individual interpretations so
// exactness/typo scoring can tell which one fired for a given document.
type termBitmap struct {
	term   queryTerm
	union  *roaring.Bitmap
	leaves []leafHit
}

func (tb termBitmap) bestEdits(docID uint32) int {
	best := -1
	for _, lh := range tb.leaves {
		if !lh.bitmap.Contains(docID) {
			continue
		}
		e := lh.leaf.edits
		if best == -1 || e < best {
			best = e
		}
	}
	if best == -1 {
		return 0
	}
	return best
}

func (tb termBitmap) matchedExact(docID uint32) bool {
	for _, lh := range tb.leaves {
		if lh.leaf.kind == interpExact && lh.bitmap.Contains(docID) {
			return true
		}
	}
	return false
}

// matchedWords returns every concrete word of tb's interpretations
// present in docID, used by proximity and attribute scoring which both
// need the actual posting word, not just that the term matched.
func (tb termBitmap) matchedWords(docID uint32) []string {
	var words []string
	for _, lh := range tb.leaves {
		if lh.bitmap.Contains(docID) {
			words = append(words, lh.leaf.word)
		}
	}
	return words
}

// buildTermBitmaps resolves every term's interpretations to posting
// bitmaps. The last term additionally consults word_prefix_docids for its
// raw (possibly still-being-typed) form, since buildQueryTree only
// expanded the last token into complete dictionary words it prefixes.
func buildTermBitmaps(tx *kv.ReadTx, terms []queryTerm) ([]termBitmap, error) {
	tbs := make([]termBitmap, len(terms))
	for i, term := range terms {
		tb := termBitmap{term: term}
		union := roaring.New()
		for _, leaf := range term.leaves {
			bm, err := index.WordDocids.Get(tx, index.WordKey(leaf.word))
			if err != nil {
				return nil, err
			}
			tb.leaves = append(tb.leaves, leafHit{leaf: leaf, bitmap: bm})
			union.Or(bm)
		}
		if i == len(terms)-1 {
			prefixBM, err := index.WordPrefixDocids.Get(tx, index.WordKey(term.original))
			if err != nil {
				return nil, err
			}
			union.Or(prefixBM)
		}
		tb.union = union
		tbs[i] = tb
	}
	return tbs, nil
}

// candidateBitmap intersects the matched-document sets of every term,
// honoring matchingStrategy when the full intersection is empty: fewer
// terms are required, in an order the strategy chooses, until a
// non-empty result is found or only one term remains required (§4.4).
// The first term is always required; dropping it would turn a query into
// an unrelated one rather than a looser match of the same query.
func candidateBitmap(tbs []termBitmap, strategy types.MatchingStrategy) *roaring.Bitmap {
	if len(tbs) == 0 {
		return nil
	}
	required := make([]int, len(tbs))
	for i := range tbs {
		required[i] = i
	}

	result := intersectTerms(tbs, required)
	if strategy == types.MatchingStrategyAll || !result.IsEmpty() || len(required) <= 1 {
		return result
	}

	for _, drop := range dropOrder(tbs, strategy) {
		required = withoutIndex(required, drop)
		result = intersectTerms(tbs, required)
		if !result.IsEmpty() || len(required) <= 1 {
			return result
		}
	}
	return result
}

func intersectTerms(tbs []termBitmap, required []int) *roaring.Bitmap {
	if len(required) == 0 {
		return roaring.New()
	}
	result := tbs[required[0]].union.Clone()
	for _, i := range required[1:] {
		result = roaring.And(result, tbs[i].union)
	}
	return result
}

// dropOrder lists term indices (excluding the first, always-mandatory
// term) in the order matchingStrategy would give them up.
func dropOrder(tbs []termBitmap, strategy types.MatchingStrategy) []int {
	if len(tbs) <= 1 {
		return nil
	}
	idxs := make([]int, 0, len(tbs)-1)
	for i := 1; i < len(tbs); i++ {
		idxs = append(idxs, i)
	}

	switch strategy {
	case types.MatchingStrategyFrequency:
		sort.Slice(idxs, func(a, b int) bool {
			return tbs[idxs[a]].union.GetCardinality() > tbs[idxs[b]].union.GetCardinality()
		})
	default: // MatchingStrategyLast and unrecognized values both drop from the end
		sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
	}
	return idxs
}

func withoutIndex(s []int, drop int) []int {
	out := make([]int, 0, len(s)-1)
	for _, v := range s {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
