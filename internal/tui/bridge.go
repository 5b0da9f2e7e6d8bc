package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/onllm-dev/reelwatch/internal/search"
)

// Bridge carries orchestrator states into a running program. Observe never
// blocks, so it is safe to call from inside Model.Update, where the
// keystroke that triggers a state change is handled. Only the newest
// undelivered state is kept; each state is a full snapshot.
type Bridge struct {
	mu     sync.Mutex
	latest chan search.State
}

// NewBridge returns an empty Bridge.
func NewBridge() *Bridge {
	return &Bridge{latest: make(chan search.State, 1)}
}

// Observe is an orchestrator observer.
func (b *Bridge) Observe(state search.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.latest:
	default:
	}
	b.latest <- state
}

// Run delivers states to send until ctx is cancelled. Pass
// tea.Program.Send as send.
func (b *Bridge) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case state := <-b.latest:
			send(StateMsg(state))
		case <-ctx.Done():
			return
		}
	}
}
