package search

import "github.com/lexidb/lexidb/pkg/types"

// Query is one search request against a single index's snapshot.
type Query struct {
	Q                     string
	Filter                string
	Sort                  []types.RankingRule // asc(field)/desc(field), user-supplied order
	Facets                []string
	Offset                int
	Limit                 int
	AttributesToRetrieve  []string
	AttributesToHighlight []string
	AttributesToCrop      []string
	CropLength            int
	MatchingStrategy      types.MatchingStrategy
	ShowMatchesPosition   bool
	Distinct              string // overrides settings.DistinctAttribute when set
	RankingScoreThreshold float64

	HighlightPreTag  string
	HighlightPostTag string
	CropMarker       string
}

// Hit is one ranked, formatted result document.
type Hit struct {
	Document       types.Document
	Score          float64
	MatchesPosition map[string][]MatchSpan `json:"_matchesPosition,omitempty"`
}

// MatchSpan is one highlighted/cropped token span within a field's text.
type MatchSpan struct {
	Start int
	Length int
}

// Result is the full response the engine produces for one Query.
type Result struct {
	Hits                []Hit
	EstimatedTotalHits  int
	FacetDistribution   map[string]map[string]uint64
	ProcessingTimeMs    int64
}
