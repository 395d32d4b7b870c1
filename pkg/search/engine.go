package search

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/search/filter"
	"github.com/lexidb/lexidb/pkg/types"
)

const (
	defaultLimit      = 20
	defaultCropLength = 10
	defaultPreTag     = "<em>"
	defaultPostTag    = "</em>"
	defaultCropMarker = "…"
)

// Search runs q against idx's current snapshot inside tx and returns the
// ranked, formatted result. tx must already be open (the caller, a
// read-only API handler, owns its lifetime); Search performs no writes.
func Search(tx *kv.ReadTx, idx *index.Index, q Query) (*Result, error) {
	settings, err := idx.SettingsTx(tx)
	if err != nil {
		return nil, err
	}

	universe, err := idx.AllDocumentIDs(tx)
	if err != nil {
		return nil, err
	}

	filterExpr, err := filter.Parse(q.Filter)
	if err != nil {
		return nil, err
	}
	filtered, err := filter.Eval(tx, idx, settings, filterExpr, universe)
	if err != nil {
		return nil, err
	}

	dict, err := idx.Dictionary(tx)
	if err != nil {
		return nil, err
	}

	var candidates *roaring.Bitmap
	var tbs []termBitmap
	if q.Q == "" {
		candidates = filtered.Clone()
	} else {
		terms, err := buildQueryTree(q.Q, settings, dict)
		if err != nil {
			return nil, err
		}
		tbs, err = buildTermBitmaps(tx, terms)
		if err != nil {
			return nil, err
		}
		strategy := q.MatchingStrategy
		if strategy == "" {
			strategy = types.MatchingStrategyLast
		}
		matched := candidateBitmap(tbs, strategy)
		if matched == nil {
			matched = roaring.New()
		}
		candidates = roaring.And(matched, filtered)
	}

	total := int(candidates.GetCardinality())

	rules := settings.RankingRules
	if len(rules) == 0 {
		rules = types.DefaultRankingRules()
	}
	ranked, err := rankCandidates(tx, idx, candidates.ToArray(), tbs, rules, q.Sort)
	if err != nil {
		return nil, err
	}

	distinctAttr := q.Distinct
	if distinctAttr == "" {
		distinctAttr = settings.DistinctAttribute
	}
	ranked = applyDistinct(ranked, distinctAttr)

	offset, limit := q.Offset, q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	page := pageSlice(ranked, offset, limit)

	hits := make([]Hit, 0, len(page))
	for _, r := range page {
		hits = append(hits, formatHit(r, q, tbs))
	}

	var facetDist map[string]map[string]uint64
	if len(q.Facets) > 0 {
		facetDist, err = computeFacetDistribution(tx, idx, settings, candidates, q.Facets)
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		Hits:               hits,
		EstimatedTotalHits: total,
		FacetDistribution:  facetDist,
	}, nil
}

func pageSlice(docs []ranked, offset, limit int) []ranked {
	if offset >= len(docs) {
		return nil
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}

func formatHit(r ranked, q Query, tbs []termBitmap) Hit {
	doc := project(r.doc, q.AttributesToRetrieve)
	hit := Hit{Document: doc}

	if len(tbs) == 0 {
		return hit
	}

	words := matchedWordSet(r.docID, tbs)
	preTag, postTag := q.HighlightPreTag, q.HighlightPostTag
	if preTag == "" {
		preTag = defaultPreTag
	}
	if postTag == "" {
		postTag = defaultPostTag
	}
	cropMarker := q.CropMarker
	if cropMarker == "" {
		cropMarker = defaultCropMarker
	}
	cropLength := q.CropLength
	if cropLength <= 0 {
		cropLength = defaultCropLength
	}

	if len(q.AttributesToHighlight) > 0 || q.ShowMatchesPosition {
		positions := make(map[string][]MatchSpan)
		for _, attr := range q.AttributesToHighlight {
			text, ok := stringField(doc[attr])
			if !ok {
				continue
			}
			highlighted, spans := highlight(text, words, preTag, postTag)
			doc[attr] = highlighted
			if len(spans) > 0 {
				positions[attr] = spans
			}
		}
		if q.ShowMatchesPosition && len(positions) > 0 {
			hit.MatchesPosition = positions
		}
	}

	for _, attr := range q.AttributesToCrop {
		text, ok := stringField(doc[attr])
		if !ok {
			continue
		}
		doc[attr] = crop(text, words, cropLength, cropMarker)
	}

	return hit
}

func computeFacetDistribution(tx *kv.ReadTx, idx *index.Index, settings types.Settings, candidates *roaring.Bitmap, facets []string) (map[string]map[string]uint64, error) {
	maxValues := settings.Faceting.MaxValuesPerFacet
	if maxValues <= 0 {
		maxValues = 100
	}

	dist := make(map[string]map[string]uint64, len(facets))
	for _, f := range facets {
		fieldID, ok := idx.FieldIDIfExists(tx, f)
		if !ok {
			continue
		}
		counts, err := idx.FacetDistribution(tx, fieldID, candidates, maxValues)
		if err != nil {
			return nil, err
		}
		values := make(map[string]uint64, len(counts))
		for _, c := range counts {
			values[c.Value] = uint64(c.Count)
		}
		dist[f] = values
	}
	return dist, nil
}

// stringField narrows a document field to the string form highlight/crop
// operate on; non-string fields (numbers, arrays) are left untouched.
func stringField(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
