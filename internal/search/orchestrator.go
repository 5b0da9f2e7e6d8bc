// Package search drives reelwatch's search lifecycle: debounced input,
// quota-gated catalog calls, and the best-effort popular-search write.
package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/onllm-dev/reelwatch/internal/analytics"
	"github.com/onllm-dev/reelwatch/internal/api"
	"github.com/onllm-dev/reelwatch/internal/quota"
)

// MinQueryLength is the shortest non-empty trimmed query that is searched.
const MinQueryLength = 3

// QuotaExceededMessage is shown when the catalog budget is exhausted.
const QuotaExceededMessage = "Daily catalog request limit reached. Please try again tomorrow."

// Catalog is the movie catalog the orchestrator searches.
type Catalog interface {
	Search(ctx context.Context, query string) ([]api.Movie, error)
	Discover(ctx context.Context, sortBy string) ([]api.Movie, error)
}

// Options tunes an Orchestrator. Zero values use defaults.
type Options struct {
	Debounce      time.Duration
	TrendingLimit int
}

// Orchestrator owns the search session state and runs one lifecycle per
// settled query. Lifecycles may overlap; whichever finishes last wins the
// visible results.
type Orchestrator struct {
	catalog   Catalog
	recorder  analytics.Recorder
	governor  *quota.Governor
	debouncer *Debouncer
	opts      Options
	logger    *slog.Logger

	mu        sync.Mutex
	state     State
	observers []func(State)

	wg sync.WaitGroup
}

// New creates an Orchestrator. recorder may be nil, in which case the
// analytics side path is always skipped and trending stays empty.
func New(catalog Catalog, recorder analytics.Recorder, governor *quota.Governor, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.TrendingLimit <= 0 {
		opts.TrendingLimit = analytics.DefaultTrendingLimit
	}

	o := &Orchestrator{
		catalog:   catalog,
		recorder:  recorder,
		governor:  governor,
		debouncer: NewDebouncer(opts.Debounce),
		opts:      opts,
		logger:    logger,
	}
	o.state.CatalogLimit = governor.Limit(quota.PoolCatalog)
	o.state.AnalyticsLimit = governor.Limit(quota.PoolAnalytics)
	o.refreshQuotaLocked()
	return o
}

// Subscribe registers fn to receive a copy of the state after every change.
func (o *Orchestrator) Subscribe(fn func(State)) {
	o.mu.Lock()
	o.observers = append(o.observers, fn)
	o.mu.Unlock()
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Type records a raw keystroke update. SearchTerm changes immediately; the
// term reaches the lifecycle only after the debounce period.
func (o *Orchestrator) Type(term string) {
	o.update(func(s *State) { s.SearchTerm = term })
	o.debouncer.Push(term)
}

// Run loads the default list and trending searches, then starts a lifecycle
// for every settled term that differs from the previous one. It returns
// after ctx is cancelled and in-flight lifecycles have finished.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("Search orchestrator started", "debounce", o.opts.Debounce)
	defer func() {
		o.debouncer.Cancel()
		o.wg.Wait()
		o.logger.Info("Search orchestrator stopped")
	}()

	o.spawn(ctx, "")

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.LoadTrending(ctx)
	}()

	for {
		select {
		case term := <-o.debouncer.Settled():
			o.mu.Lock()
			changed := term != o.state.DebouncedTerm
			o.mu.Unlock()
			if !changed {
				continue
			}
			o.update(func(s *State) { s.DebouncedTerm = term })
			o.spawn(ctx, term)
		case <-ctx.Done():
			return nil
		}
	}
}

func (o *Orchestrator) spawn(ctx context.Context, query string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.Settle(ctx, query)
	}()
}

// Settle runs one search lifecycle for query and returns how it ended.
func (o *Orchestrator) Settle(ctx context.Context, query string) Outcome {
	logger := o.logger.With("lifecycle", uuid.New().String(), "query", query)

	if !o.governor.CanSpend(quota.PoolCatalog) {
		logger.Warn("Catalog quota exhausted, skipping search")
		o.update(func(s *State) { s.ErrorMessage = QuotaExceededMessage })
		return OutcomeQuotaExceeded
	}

	if query != "" && utf8.RuneCountInString(strings.TrimSpace(query)) < MinQueryLength {
		logger.Debug("Query too short, ignoring")
		return OutcomeIgnored
	}

	o.update(func(s *State) {
		s.Loading = true
		s.ErrorMessage = ""
	})

	movies, err := o.fetch(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown; leave the message alone.
			o.update(func(s *State) { s.Loading = false })
			return OutcomeFailed
		}
		logger.Error("Catalog fetch failed", "error", err)
		o.update(func(s *State) {
			s.ErrorMessage = "Error fetching movies: " + err.Error()
			s.Loading = false
		})
		return OutcomeFailed
	}

	if err := o.governor.Spend(quota.PoolCatalog); err != nil {
		logger.Warn("Failed to record catalog spend", "error", err)
	}
	o.update(func(s *State) {
		s.Movies = movies
		o.refreshQuotaLocked()
	})

	result := o.recordAnalytics(ctx, query, movies)
	switch result.Status {
	case AnalyticsRecorded:
		logger.Info("Search recorded to analytics")
	case AnalyticsSkipped:
		logger.Debug("Analytics write skipped", "reason", result.Reason)
	case AnalyticsFailed:
		logger.Warn("Analytics write failed", "reason", result.Reason, "error", result.Err)
	}

	o.update(func(s *State) { s.Loading = false })

	logger.Info("Search complete",
		"results", len(movies),
		"catalog_left", o.governor.CallsLeft(quota.PoolCatalog),
	)
	return OutcomeSuccess
}

func (o *Orchestrator) fetch(ctx context.Context, query string) ([]api.Movie, error) {
	if query == "" {
		return o.catalog.Discover(ctx, api.SortPopularityDesc)
	}
	return o.catalog.Search(ctx, query)
}

// recordAnalytics credits query to the analytics pool at most once per day,
// using the first result as the representative movie.
func (o *Orchestrator) recordAnalytics(ctx context.Context, query string, movies []api.Movie) AnalyticsResult {
	switch {
	case o.recorder == nil:
		return AnalyticsResult{Status: AnalyticsSkipped, Reason: "no analytics store"}
	case query == "":
		return AnalyticsResult{Status: AnalyticsSkipped, Reason: "empty query"}
	case len(movies) == 0:
		return AnalyticsResult{Status: AnalyticsSkipped, Reason: "no results"}
	case !o.governor.CanSpend(quota.PoolAnalytics):
		return AnalyticsResult{Status: AnalyticsSkipped, Reason: "analytics quota exhausted"}
	case o.governor.WasCounted(query):
		return AnalyticsResult{Status: AnalyticsSkipped, Reason: "already counted today"}
	}

	if err := o.recorder.RecordQuery(ctx, query, movies[0]); err != nil {
		return AnalyticsResult{Status: AnalyticsFailed, Reason: "record query", Err: err}
	}

	if err := o.governor.Spend(quota.PoolAnalytics); err != nil {
		o.logger.Warn("Failed to record analytics spend", "error", err)
	}
	if err := o.governor.MarkCounted(query); err != nil {
		o.logger.Warn("Failed to mark query counted", "query", query, "error", err)
	}
	o.update(func(*State) { o.refreshQuotaLocked() })
	return AnalyticsResult{Status: AnalyticsRecorded}
}

// LoadTrending fetches the popular-search list once. Failures are logged
// and never surface as an error message.
func (o *Orchestrator) LoadTrending(ctx context.Context) {
	if o.recorder == nil {
		return
	}
	entries, err := o.recorder.ListTrending(ctx, o.opts.TrendingLimit)
	if err != nil {
		if ctx.Err() == nil {
			o.logger.Warn("Failed to load trending searches", "error", err)
		}
		return
	}
	o.update(func(s *State) { s.Trending = entries })
}

// update applies fn under the state lock, then notifies observers.
func (o *Orchestrator) update(fn func(*State)) {
	o.mu.Lock()
	fn(&o.state)
	snapshot := o.state.clone()
	observers := slices.Clone(o.observers)
	o.mu.Unlock()

	for _, obs := range observers {
		obs(snapshot)
	}
}

// refreshQuotaLocked recomputes the remaining-call counters. Callers hold mu.
func (o *Orchestrator) refreshQuotaLocked() {
	o.state.CatalogLeft = o.governor.CallsLeft(quota.PoolCatalog)
	o.state.AnalyticsLeft = o.governor.CallsLeft(quota.PoolAnalytics)
}
