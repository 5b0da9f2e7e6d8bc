package quota

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/onllm-dev/reelwatch/internal/store"
)

// CountedQueriesKey is the persisted key of the dedup registry.
const CountedQueriesKey = "counted:queries"

// registryRecord is the persisted form of the dedup registry.
type registryRecord struct {
	Date  string   `json:"date"`
	Items []string `json:"items"`
}

// Registry remembers which queries have already been credited to the
// analytics pool today. Matching is case-insensitive.
type Registry struct {
	kv     store.KV
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex
}

// NewRegistry creates a Registry over kv. A nil now defaults to time.Now.
func NewRegistry(kv store.KV, now func() time.Time, logger *slog.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{kv: kv, now: now, logger: logger}
}

// Normalize folds case so "Matrix" and "MATRIX" share one entry.
func Normalize(query string) string {
	return cases.Fold().String(query)
}

// WasCountedToday reports whether query was marked today.
func (r *Registry) WasCountedToday(query string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.load()
	return slices.Contains(rec.Items, Normalize(query))
}

// MarkCountedToday adds query to today's registry. Marking an existing
// entry is a no-op apart from the write.
func (r *Registry) MarkCountedToday(query string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.load()
	q := Normalize(query)
	if !slices.Contains(rec.Items, q) {
		rec.Items = append(rec.Items, q)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("quota: encode registry: %w", err)
	}
	if err := r.kv.Set(CountedQueriesKey, data); err != nil {
		return fmt.Errorf("quota: mark %q counted: %w", q, err)
	}
	return nil
}

// Items returns today's normalized entries in sorted order.
func (r *Registry) Items() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := slices.Clone(r.load().Items)
	slices.Sort(items)
	return items
}

// load returns today's record. Missing, stale, or malformed state yields an
// empty record for today.
func (r *Registry) load() registryRecord {
	today := Day(r.now())
	fresh := registryRecord{Date: today, Items: []string{}}

	raw, found, err := r.kv.Get(CountedQueriesKey)
	if err != nil {
		r.logger.Warn("Dedup registry unreadable, treating as empty", "error", err)
		return fresh
	}
	if !found {
		return fresh
	}

	var rec registryRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		r.logger.Warn("Dedup registry malformed, treating as empty", "error", err)
		return fresh
	}
	if rec.Date != today {
		return fresh
	}
	if rec.Items == nil {
		rec.Items = []string{}
	}
	return rec
}
