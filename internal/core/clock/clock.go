// Package clock provides the timing primitives used to retire notifications:
// a Clock abstraction over package time and a Scheduler that tracks one-shot
// callbacks by handle so they can be cancelled by lookup.
package clock

import "time"

// Timer is a pending one-shot callback created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

// Clock is the source of time and delayed execution.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Real returns a Clock backed by package time. Callbacks run on their own
// goroutine, as with time.AfterFunc.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
