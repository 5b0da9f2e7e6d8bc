package search

import (
	"slices"

	"github.com/onllm-dev/reelwatch/internal/analytics"
	"github.com/onllm-dev/reelwatch/internal/api"
)

// State is the UI-visible search session.
type State struct {
	SearchTerm    string
	DebouncedTerm string
	Movies        []api.Movie
	Trending      []analytics.TrendingEntry
	Loading       bool
	ErrorMessage  string

	CatalogLeft    int
	CatalogLimit   int
	AnalyticsLeft  int
	AnalyticsLimit int
}

// clone returns a copy that shares no slices with s.
func (s State) clone() State {
	s.Movies = slices.Clone(s.Movies)
	s.Trending = slices.Clone(s.Trending)
	return s
}

// Outcome is how a single settle lifecycle ended.
type Outcome int

const (
	// OutcomeQuotaExceeded: the catalog budget was spent; no call was made.
	OutcomeQuotaExceeded Outcome = iota
	// OutcomeIgnored: the query was too short to search.
	OutcomeIgnored
	// OutcomeSuccess: results were applied.
	OutcomeSuccess
	// OutcomeFailed: the catalog call failed and prior results were kept.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeQuotaExceeded:
		return "quota_exceeded"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// AnalyticsStatus classifies the best-effort analytics write.
type AnalyticsStatus int

const (
	AnalyticsRecorded AnalyticsStatus = iota
	AnalyticsSkipped
	AnalyticsFailed
)

func (s AnalyticsStatus) String() string {
	switch s {
	case AnalyticsRecorded:
		return "recorded"
	case AnalyticsSkipped:
		return "skipped"
	case AnalyticsFailed:
		return "failed"
	}
	return "unknown"
}

// AnalyticsResult is returned by the analytics side path. It is logged and
// never changes the outcome of the search that produced it.
type AnalyticsResult struct {
	Status AnalyticsStatus
	Reason string
	Err    error
}
