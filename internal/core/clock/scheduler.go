package clock

import (
	"fmt"
	"time"
)

// Handle identifies a callback registered with a Scheduler. The zero Handle
// never refers to a scheduled callback.
type Handle uint64

// Scheduler registers one-shot callbacks and cancels them by handle.
//
// A Scheduler is not safe for concurrent use. Owners serialize access with
// their own lock; the callback passed to Schedule runs without that lock held,
// so it must acquire it before touching shared state.
type Scheduler struct {
	clock   Clock
	next    Handle
	pending map[Handle]Timer
}

// NewScheduler creates a scheduler on top of c. A nil clock uses Real().
func NewScheduler(c Clock) *Scheduler {
	if c == nil {
		c = Real()
	}
	return &Scheduler{
		clock:   c,
		pending: make(map[Handle]Timer),
	}
}

// Schedule arranges for fn to run once after d. Delays of zero or less are a
// caller error: infinite lifetimes are never scheduled.
func (s *Scheduler) Schedule(d time.Duration, fn func()) Handle {
	if d <= 0 {
		panic(fmt.Sprintf("clock: schedule with non-positive delay %s", d))
	}

	s.next++
	h := s.next
	s.pending[h] = s.clock.AfterFunc(d, fn)
	return h
}

// Cancel stops the callback for h if it has not fired yet. Unknown, fired,
// and already-cancelled handles are ignored.
func (s *Scheduler) Cancel(h Handle) {
	t, ok := s.pending[h]
	if !ok {
		return
	}
	delete(s.pending, h)
	t.Stop()
}

// Release forgets h without stopping it. Callbacks call this when they fire so
// the handle no longer counts as pending.
func (s *Scheduler) Release(h Handle) {
	delete(s.pending, h)
}

// CancelAll stops every pending callback and returns how many were stopped.
func (s *Scheduler) CancelAll() int {
	n := len(s.pending)
	for h, t := range s.pending {
		t.Stop()
		delete(s.pending, h)
	}
	return n
}

// Pending returns the number of callbacks that are scheduled and not yet
// released or cancelled.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}

// Now returns the current time of the underlying clock.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}
