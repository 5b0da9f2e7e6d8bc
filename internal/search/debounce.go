package search

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// term settles.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer coalesces a stream of terms into settle events. Each Push
// cancels the pending timer and arms a new one; only the newest term can
// settle.
type Debouncer struct {
	arm     func(f func())
	mu      sync.Mutex
	seq     uint64
	settled chan string
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(after time.Duration) *Debouncer {
	if after <= 0 {
		after = DefaultDebounce
	}
	return &Debouncer{
		arm:     debounce.New(after),
		settled: make(chan string, 1),
	}
}

// Push records a new term and restarts the quiet period.
func (d *Debouncer) Push(term string) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	d.arm(func() { d.fire(seq, term) })
}

// Cancel drops any pending term without settling it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.seq++
	d.mu.Unlock()
}

// Settled delivers settled terms. An unread settle is replaced by a newer one.
func (d *Debouncer) Settled() <-chan string {
	return d.settled
}

func (d *Debouncer) fire(seq uint64, term string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A timer can fire while a newer Push is replacing it.
	if seq != d.seq {
		return
	}
	select {
	case <-d.settled:
	default:
	}
	d.settled <- term
}
