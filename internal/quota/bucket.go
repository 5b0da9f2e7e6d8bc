// Package quota tracks daily call budgets for reelwatch's outbound
// services. Budgets are persisted per calendar day and roll over lazily
// the first time they are read on a new day.
package quota

import "time"

// DateLayout is the persisted calendar-day format.
const DateLayout = "2006-01-02"

// Pool identifies an independently rate-limited dependency.
type Pool string

const (
	PoolCatalog   Pool = "catalog"
	PoolAnalytics Pool = "analytics"
)

// Pools lists every pool in display order.
var Pools = []Pool{PoolCatalog, PoolAnalytics}

// Key returns the persisted key for the pool's bucket.
func (p Pool) Key() string {
	return "quota:" + string(p)
}

// Bucket is one pool's usage for one calendar day.
type Bucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Day formats t as a local calendar day.
func Day(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// Rollover returns b unchanged when it belongs to today, otherwise a fresh
// zero-count bucket for today.
func Rollover(b Bucket, today string) Bucket {
	if b.Date != today || b.Count < 0 {
		return Bucket{Date: today, Count: 0}
	}
	return b
}
