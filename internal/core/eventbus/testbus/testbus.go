// Package testbus wraps a real EventBus with delivery recording for tests.
package testbus

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/toast/internal/core/eventbus"
)

// RecordedEvent is one delivered event.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus records every event its EventBus delivers.
type Bus struct {
	*eventbus.EventBus

	mu     sync.Mutex
	events []RecordedEvent
}

// New returns a recording bus running on its own goroutine until the test
// ends.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := NewManual(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go tb.Start(ctx)
	return tb
}

// NewManual returns a recording bus that is never started. Drain delivers
// queued events on the calling goroutine.
func NewManual(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{EventBus: eventbus.New(64)}
	rec := func(e eventbus.Event) func(any) {
		return func(p any) { tb.record(e, p) }
	}

	b := tb.EventBus
	b.SubscribeTaskCreated(func(p eventbus.TaskCreatedPayload) { rec(eventbus.EventTaskCreated)(p) })
	b.SubscribeTaskUpdated(func(p eventbus.TaskUpdatedPayload) { rec(eventbus.EventTaskUpdated)(p) })
	b.SubscribeTaskDeleted(func(p eventbus.TaskDeletedPayload) { rec(eventbus.EventTaskDeleted)(p) })
	b.SubscribeTaskFailed(func(p eventbus.TaskFailedPayload) { rec(eventbus.EventTaskFailed)(p) })
	b.SubscribeAuthSignedIn(func(p eventbus.AuthSignedInPayload) { rec(eventbus.EventAuthSignedIn)(p) })
	b.SubscribeAuthSignedOut(func(p eventbus.AuthSignedOutPayload) { rec(eventbus.EventAuthSignedOut)(p) })
	b.SubscribeAuthFailed(func(p eventbus.AuthFailedPayload) { rec(eventbus.EventAuthFailed)(p) })
	b.SubscribeAPIUnreachable(func(p eventbus.APIUnreachablePayload) { rec(eventbus.EventAPIUnreachable)(p) })
	b.SubscribeAPIRecovered(func(p eventbus.APIRecoveredPayload) { rec(eventbus.EventAPIRecovered)(p) })

	return tb
}

func (tb *Bus) record(event eventbus.Event, payload any) {
	tb.mu.Lock()
	tb.events = append(tb.events, RecordedEvent{Event: event, Payload: payload})
	tb.mu.Unlock()
}

// Events returns the delivered events in delivery order.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return slices.Clone(tb.events)
}

// Reset forgets everything recorded so far.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	tb.events = nil
	tb.mu.Unlock()
}

func (tb *Bus) has(event eventbus.Event) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return slices.ContainsFunc(tb.events, func(e RecordedEvent) bool { return e.Event == event })
}

// AssertPublished fails the test unless event is delivered within 500ms.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	assert.Eventually(t, func() bool { return tb.has(event) }, 500*time.Millisecond, 5*time.Millisecond,
		"event %q was not delivered", event)
}

// AssertNotPublished fails the test if event is delivered within wait.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	assert.Never(t, func() bool { return tb.has(event) }, wait, 5*time.Millisecond,
		"event %q was delivered", event)
}
