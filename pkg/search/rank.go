package search

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// ranked is one candidate document carried through the bucket-sort
// pipeline, accumulating whatever score each rule needs as it runs.
type ranked struct {
	docID types.InternalDocID
	doc   types.Document
}

// maxPairProximity mirrors pkg/indexing's proximity cap: pairs never
// stored beyond this distance are treated as "not adjacent" (§4.3).
const maxPairProximity = 8

// rankCandidates orders docIDs (ascending on entry, the only place
// InternalDocID-ascending tie-break is established — §9 open question
// (a)) by settings' ranking rules, each pass a stable sort so ties fall
// through to the next rule and, eventually, to that initial order.
func rankCandidates(tx *kv.ReadTx, idx *index.Index, docIDs []uint32, tbs []termBitmap, rules []types.RankingRule, sortOverride []types.RankingRule) ([]ranked, error) {
	docs := make([]ranked, len(docIDs))
	for i, id := range docIDs {
		doc, _, err := idx.DocumentByInternalID(tx, types.InternalDocID(id))
		docs[i] = ranked{docID: types.InternalDocID(id), doc: doc}
		if err != nil {
			return nil, err
		}
	}

	for _, rule := range rules {
		if rule.Kind == types.RankingSort && len(sortOverride) > 0 {
			for _, sr := range sortOverride {
				if err := applyRule(tx, idx, docs, sr, tbs); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := applyRule(tx, idx, docs, rule, tbs); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func applyRule(tx *kv.ReadTx, idx *index.Index, docs []ranked, rule types.RankingRule, tbs []termBitmap) error {
	switch rule.Kind {
	case types.RankingWords:
		sortByScore(docs, func(r ranked) float64 { return float64(wordsMatched(r.docID, tbs)) }, true)
	case types.RankingTypo:
		sortByScore(docs, func(r ranked) float64 { return -float64(totalEdits(r.docID, tbs)) }, true)
	case types.RankingExactness:
		sortByScore(docs, func(r ranked) float64 { return float64(exactCount(r.docID, tbs)) }, true)
	case types.RankingProximity:
		scores, err := proximityScores(tx, docs, tbs)
		if err != nil {
			return err
		}
		sortByScore(docs, func(r ranked) float64 { return -scores[r.docID] }, true)
	case types.RankingAttribute:
		scores, err := attributeScores(tx, idx, docs, tbs)
		if err != nil {
			return err
		}
		sortByScore(docs, func(r ranked) float64 { return -scores[r.docID] }, true)
	case types.RankingAsc:
		sortByField(docs, rule.Field, true)
	case types.RankingDesc:
		sortByField(docs, rule.Field, false)
	case types.RankingSort:
		// no per-search sort attribute supplied; this rule contributes
		// nothing and the next rule decides.
	}
	return nil
}

// sortByScore stable-sorts docs by score(desc), the shape every ranking
// rule but asc/desc and the implicit tie-break shares.
func sortByScore(docs []ranked, score func(ranked) float64, higherIsBetter bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		si, sj := score(docs[i]), score(docs[j])
		if higherIsBetter {
			return si > sj
		}
		return si < sj
	})
}

func sortByField(docs []ranked, field string, ascending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		vi, oki := docs[i].doc[field]
		vj, okj := docs[j].doc[field]
		if !oki || !okj {
			return false
		}
		less, ok := compareValues(vi, vj)
		if !ok {
			return false
		}
		if ascending {
			return less
		}
		return !less && vi != vj
	})
}

// compareValues reports whether a < b for the two value kinds a document
// field may realistically hold; ok is false for anything else, leaving
// the pair's relative order untouched.
func compareValues(a, b any) (less bool, ok bool) {
	switch av := a.(type) {
	case float64:
		bv, ok2 := b.(float64)
		if !ok2 {
			return false, false
		}
		return av < bv, true
	case string:
		bv, ok2 := b.(string)
		if !ok2 {
			return false, false
		}
		return av < bv, true
	default:
		return false, false
	}
}

func wordsMatched(docID types.InternalDocID, tbs []termBitmap) int {
	count := 0
	for _, tb := range tbs {
		if tb.union.Contains(uint32(docID)) {
			count++
		}
	}
	return count
}

func totalEdits(docID types.InternalDocID, tbs []termBitmap) int {
	sum := 0
	for _, tb := range tbs {
		sum += tb.bestEdits(uint32(docID))
	}
	return sum
}

func exactCount(docID types.InternalDocID, tbs []termBitmap) int {
	count := 0
	for _, tb := range tbs {
		if tb.matchedExact(uint32(docID)) {
			count++
		}
	}
	return count
}

// proximityScores computes, for every candidate doc, the sum across
// adjacent query term pairs of the minimal stored proximity at which the
// pair's matched words co-occur in that doc (lower is better; a pair
// with no stored co-occurrence at any tracked distance costs
// maxPairProximity+1). This is a document-level summary rather than a
// per-occurrence-window score: it does not distinguish a document where
// the pair is close in one place and far in another from one where it is
// consistently at the average distance.
func proximityScores(tx *kv.ReadTx, docs []ranked, tbs []termBitmap) (map[types.InternalDocID]float64, error) {
	scores := make(map[types.InternalDocID]float64, len(docs))
	if len(tbs) < 2 {
		return scores, nil
	}

	for _, d := range docs {
		total := 0
		for i := 0; i < len(tbs)-1; i++ {
			best, err := bestPairProximity(tx, d.docID, tbs[i], tbs[i+1])
			if err != nil {
				return nil, err
			}
			total += best
		}
		scores[d.docID] = float64(total)
	}
	return scores, nil
}

func bestPairProximity(tx *kv.ReadTx, docID types.InternalDocID, left, right termBitmap) (int, error) {
	lw := left.matchedWords(uint32(docID))
	rw := right.matchedWords(uint32(docID))
	best := maxPairProximity + 1
	for _, w1 := range lw {
		for _, w2 := range rw {
			for p := uint8(1); p <= maxPairProximity; p++ {
				if int(p) >= best {
					break
				}
				bm, err := index.WordPairProximityDocids.Get(tx, index.PairProximityKey(w1, w2, p))
				if err != nil {
					return 0, err
				}
				if bm.Contains(uint32(docID)) {
					best = int(p)
					break
				}
			}
		}
	}
	return best, nil
}

// attributeScores ranks a doc higher the earlier (lower field id) one of
// its matched words was found in a field, approximating "matched in a
// more important searchable attribute" without keeping a separate
// per-attribute weight table.
func attributeScores(tx *kv.ReadTx, idx *index.Index, docs []ranked, tbs []termBitmap) (map[types.InternalDocID]float64, error) {
	scores := make(map[types.InternalDocID]float64, len(docs))
	for _, d := range docs {
		best := -1
		for _, tb := range tbs {
			for _, w := range tb.matchedWords(uint32(d.docID)) {
				fieldID, found, err := minFieldForWord(tx, w, uint32(d.docID))
				if err != nil {
					return nil, err
				}
				if !found {
					continue
				}
				if best == -1 || int(fieldID) < best {
					best = int(fieldID)
				}
			}
		}
		if best == -1 {
			scores[d.docID] = 0
			continue
		}
		// invert: a lower field id should score higher.
		scores[d.docID] = 1.0 / float64(best+1)
	}
	return scores, nil
}

func minFieldForWord(tx *kv.ReadTx, word string, docID uint32) (types.FieldID, bool, error) {
	prefix := append([]byte(word), 0)
	best := -1
	err := index.FieldIDWordDocids.Range(tx, prefix, func(k []byte, bm *roaring.Bitmap) bool {
		if !bm.Contains(docID) {
			return true
		}
		fieldID := int(kv.Uint32BigEndian(k[len(prefix):]))
		if best == -1 || fieldID < best {
			best = fieldID
		}
		return true
	})
	if err != nil {
		return 0, false, err
	}
	if best == -1 {
		return 0, false, nil
	}
	return types.FieldID(best), true, nil
}
