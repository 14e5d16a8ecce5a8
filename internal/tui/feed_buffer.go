package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/toast/internal/core/notify"
)

// feedMsg carries the latest notification list into the bubbletea loop.
type feedMsg []notify.Notification

// FeedBuffer hands broadcasts from the toast service to the bubbletea loop.
// Subscribers must not block, so Push only stores the newest list and emits
// a coalesced signal; intermediate lists that arrive before the loop drains
// are skipped.
type FeedBuffer struct {
	mu      sync.Mutex
	latest  []notify.Notification
	pending bool
	signal  chan struct{}
}

// NewFeedBuffer constructs a buffer for async feed delivery.
func NewFeedBuffer() *FeedBuffer {
	return &FeedBuffer{signal: make(chan struct{}, 1)}
}

// Push records list as the newest feed and emits a non-blocking drain signal.
// It has the signature of a toast subscriber.
func (b *FeedBuffer) Push(list []notify.Notification) {
	b.mu.Lock()
	b.latest = list
	b.pending = true
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Drain returns the newest feed and whether one arrived since the last call.
func (b *FeedBuffer) Drain() ([]notify.Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pending {
		return nil, false
	}
	b.pending = false
	return b.latest, true
}

// WaitForSignal blocks until a feed is ready to drain.
func (b *FeedBuffer) WaitForSignal() tea.Cmd {
	return func() tea.Msg {
		<-b.signal
		list, ok := b.Drain()
		if !ok {
			return nil
		}
		return feedMsg(list)
	}
}
