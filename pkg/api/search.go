package api

import (
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/search"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

// searchRequest is the wire shape of a search.Query: search.Query itself
// carries no JSON tags since pkg/search is a pure engine package, so the
// wire layer owns the camelCase request/response contract.
type searchRequest struct {
	Q                     string   `json:"q"`
	Filter                string   `json:"filter,omitempty"`
	Sort                  []string `json:"sort,omitempty"`
	Facets                []string `json:"facets,omitempty"`
	Offset                int      `json:"offset,omitempty"`
	Limit                 int      `json:"limit,omitempty"`
	AttributesToRetrieve  []string `json:"attributesToRetrieve,omitempty"`
	AttributesToHighlight []string `json:"attributesToHighlight,omitempty"`
	AttributesToCrop      []string `json:"attributesToCrop,omitempty"`
	CropLength            int      `json:"cropLength,omitempty"`
	MatchingStrategy      string   `json:"matchingStrategy,omitempty"`
	ShowMatchesPosition   bool     `json:"showMatchesPosition,omitempty"`
	Distinct              string   `json:"distinct,omitempty"`
	RankingScoreThreshold float64  `json:"rankingScoreThreshold,omitempty"`
	HighlightPreTag       string   `json:"highlightPreTag,omitempty"`
	HighlightPostTag      string   `json:"highlightPostTag,omitempty"`
	CropMarker            string   `json:"cropMarker,omitempty"`
}

func (r searchRequest) toQuery() (search.Query, error) {
	sort := make([]types.RankingRule, 0, len(r.Sort))
	for _, s := range r.Sort {
		rule, err := parseSortRule(s)
		if err != nil {
			return search.Query{}, err
		}
		sort = append(sort, rule)
	}

	limit := r.Limit
	if limit == 0 {
		limit = 20
	}

	return search.Query{
		Q:                     r.Q,
		Filter:                r.Filter,
		Sort:                  sort,
		Facets:                r.Facets,
		Offset:                r.Offset,
		Limit:                 limit,
		AttributesToRetrieve:  r.AttributesToRetrieve,
		AttributesToHighlight: r.AttributesToHighlight,
		AttributesToCrop:      r.AttributesToCrop,
		CropLength:            r.CropLength,
		MatchingStrategy:      types.MatchingStrategy(r.MatchingStrategy),
		ShowMatchesPosition:   r.ShowMatchesPosition,
		Distinct:              r.Distinct,
		RankingScoreThreshold: r.RankingScoreThreshold,
		HighlightPreTag:       r.HighlightPreTag,
		HighlightPostTag:      r.HighlightPostTag,
		CropMarker:            r.CropMarker,
	}, nil
}

// parseSortRule turns "field:asc"/"field:desc" into a RankingRule.
func parseSortRule(s string) (types.RankingRule, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != ':' {
			continue
		}
		field, dir := s[:i], s[i+1:]
		switch dir {
		case "asc":
			return types.RankingRule{Kind: types.RankingAsc, Field: field}, nil
		case "desc":
			return types.RankingRule{Kind: types.RankingDesc, Field: field}, nil
		}
	}
	return types.RankingRule{}, newAPIError(400, "invalid_search_q", "invalid_request", "sort entries must be \"field:asc\" or \"field:desc\": "+s)
}

// hitResponse renames search.Hit's bare Document/Score fields to the
// camelCase keys the rest of this package's wire bodies use.
type hitResponse struct {
	Document        types.Document             `json:"document"`
	Score           float64                    `json:"score"`
	MatchesPosition map[string][]search.MatchSpan `json:"matchesPosition,omitempty"`
}

func toHitResponses(hits []search.Hit) []hitResponse {
	out := make([]hitResponse, len(hits))
	for i, h := range hits {
		out[i] = hitResponse{Document: h.Document, Score: h.Score, MatchesPosition: h.MatchesPosition}
	}
	return out
}

type searchResponse struct {
	Hits               []hitResponse                 `json:"hits"`
	EstimatedTotalHits int                            `json:"estimatedTotalHits"`
	FacetDistribution  map[string]map[string]uint64  `json:"facetDistribution,omitempty"`
	ProcessingTimeMs   int64                          `json:"processingTimeMs"`
	Offset             int                            `json:"offset"`
	Limit              int                            `json:"limit"`
}

// handleSearch is POST /indexes/{uid}/search (§6 — sync).
func (s *Server) handleSearch(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionSearch, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}

	var req searchRequest
	if err := c.Bind(&req, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_search_q", err.Error())
	}
	q, err := req.toQuery()
	if err != nil {
		return err
	}

	var result *search.Result
	err = idx.View(func(tx *kv.ReadTx) error {
		var err error
		result, err = search.Search(tx, idx, q)
		return err
	})
	if err != nil {
		return err
	}

	return c.JSON(200, searchResponse{
		Hits:               toHitResponses(result.Hits),
		EstimatedTotalHits: result.EstimatedTotalHits,
		FacetDistribution:  result.FacetDistribution,
		ProcessingTimeMs:   result.ProcessingTimeMs,
		Offset:             q.Offset,
		Limit:              q.Limit,
	})
}

type facetSearchRequest struct {
	FacetName  string `json:"facetName"`
	FacetQuery string `json:"facetQuery,omitempty"`
	Filter     string `json:"filter,omitempty"`
}

type facetSearchResponse struct {
	FacetHits        []facetHit `json:"facetHits"`
	ProcessingTimeMs int64      `json:"processingTimeMs"`
}

type facetHit struct {
	Value string `json:"value"`
	Count uint64 `json:"count"`
}

// handleFacetSearch is POST /indexes/{uid}/facet-search (§6 — sync): a
// search restricted to the distinct values of one facet, built on top of
// the same engine's facet distribution rather than a separate index.
func (s *Server) handleFacetSearch(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionSearch, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}

	var req facetSearchRequest
	if err := c.Bind(&req, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_search_q", err.Error())
	}
	if req.FacetName == "" {
		return newAPIError(400, "bad_request", "invalid_search_q", "facetName is required")
	}

	var result *search.Result
	err = idx.View(func(tx *kv.ReadTx) error {
		var err error
		result, err = search.Search(tx, idx, search.Query{
			Filter: req.Filter,
			Facets: []string{req.FacetName},
			Limit:  0,
		})
		return err
	})
	if err != nil {
		return err
	}

	hits := make([]facetHit, 0, len(result.FacetDistribution[req.FacetName]))
	for value, count := range result.FacetDistribution[req.FacetName] {
		if req.FacetQuery != "" && !containsFold(value, req.FacetQuery) {
			continue
		}
		hits = append(hits, facetHit{Value: value, Count: count})
	}
	return c.JSON(200, facetSearchResponse{FacetHits: hits, ProcessingTimeMs: result.ProcessingTimeMs})
}
