package quota

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/onllm-dev/reelwatch/internal/store"
)

// Ledger records how many calls each pool has spent today. It does not
// enforce limits; see Governor.
type Ledger struct {
	kv     store.KV
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex

	onRollover func(pool Pool, previous Bucket)
}

// NewLedger creates a Ledger over kv. A nil now defaults to time.Now.
func NewLedger(kv store.KV, now func() time.Time, logger *slog.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{kv: kv, now: now, logger: logger}
}

// SetOnRollover registers a callback invoked when a stale bucket from a
// previous day is replaced.
func (l *Ledger) SetOnRollover(fn func(Pool, Bucket)) {
	l.onRollover = fn
}

// ReadBucket returns today's bucket for pool, persisting a fresh one when
// the stored record is missing, stale, or unreadable.
func (l *Ledger) ReadBucket(pool Pool) Bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked(pool)
}

// Spend adds one call to today's bucket. The returned error only reports a
// failed write; the in-memory decision is unaffected.
func (l *Ledger) Spend(pool Pool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.readLocked(pool)
	b.Count++
	if err := l.write(pool, b); err != nil {
		return fmt.Errorf("quota: spend %s: %w", pool, err)
	}
	return nil
}

// CallsLeft returns limit minus today's count, floored at zero.
func (l *Ledger) CallsLeft(pool Pool, limit int) int {
	return max(limit-l.ReadBucket(pool).Count, 0)
}

func (l *Ledger) readLocked(pool Pool) Bucket {
	today := Day(l.now())

	raw, found, err := l.kv.Get(pool.Key())
	if err != nil {
		l.logger.Warn("Quota bucket unreadable, resetting", "pool", pool, "error", err)
		found = false
	}

	var stored Bucket
	if found {
		if err := json.Unmarshal(raw, &stored); err != nil {
			l.logger.Warn("Quota bucket malformed, resetting", "pool", pool, "error", err)
			found = false
		}
	}

	current := Rollover(stored, today)
	if found && current == stored {
		return current
	}

	if found && l.onRollover != nil {
		l.onRollover(pool, stored)
	}
	if found {
		l.logger.Info("Quota rolled over", "pool", pool, "previous_date", stored.Date, "previous_count", stored.Count)
	}
	if err := l.write(pool, current); err != nil {
		l.logger.Warn("Failed to persist fresh quota bucket", "pool", pool, "error", err)
	}
	return current
}

func (l *Ledger) write(pool Pool, b Bucket) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return l.kv.Set(pool.Key(), data)
}
