// Package notify holds the notification model and the Store that keeps the
// ordered set of active notifications and retires them when they expire.
package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/toast/internal/core/validate"
)

// ErrInvalidNotification is returned when a notification cannot be enqueued
// because its content is malformed. Retrying with the same input fails again.
var ErrInvalidNotification = errors.New("invalid notification")

// Kind selects how a notification is presented. It carries no behavior in the
// queue itself.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Kinds lists every valid Kind.
var Kinds = []Kind{KindSuccess, KindError, KindWarning, KindInfo}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return true
	}
	return false
}

// ParseKind converts a string such as "warning" to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

const (
	// Infinite disables auto-dismiss; only an explicit dismiss removes the
	// notification.
	Infinite time.Duration = 0

	// DefaultDuration is the lifetime used when a producer does not pick one.
	DefaultDuration = 5 * time.Second
)

// Action is an optional user interaction attached to a notification. Only
// the rendering layer invokes Run.
type Action struct {
	Label string
	Run   func()
}

// Notification is an active, user-visible message.
type Notification struct {
	ID          string
	Kind        Kind
	Message     string
	Description string
	Duration    time.Duration
	Action      *Action
	CreatedAt   time.Time
	ExpiresAt   time.Time // zero when Duration is Infinite
}

// Persistent reports whether the notification is exempt from auto-dismiss.
func (n Notification) Persistent() bool {
	return n.Duration == Infinite
}

// Remaining returns the time left before auto-dismiss at now. Persistent
// notifications report zero.
func (n Notification) Remaining(now time.Time) time.Duration {
	if n.Persistent() {
		return 0
	}
	return max(n.ExpiresAt.Sub(now), 0)
}

// Spec is the producer's description of a notification. Duration is taken
// literally: Infinite (0) never expires.
type Spec struct {
	Kind        Kind
	Message     string
	Description string
	Duration    time.Duration
	Action      *Action
}

// Option adjusts a Spec built by NewSpec.
type Option func(*Spec)

// WithDescription sets the secondary display text.
func WithDescription(desc string) Option {
	return func(s *Spec) { s.Description = desc }
}

// WithDuration overrides the default lifetime. Pass Infinite to keep the
// notification until it is dismissed.
func WithDuration(d time.Duration) Option {
	return func(s *Spec) { s.Duration = d }
}

// WithAction attaches a labelled callback for the rendering layer.
func WithAction(label string, run func()) Option {
	return func(s *Spec) { s.Action = &Action{Label: label, Run: run} }
}

// NewSpec builds a Spec with DefaultDuration and applies opts.
func NewSpec(kind Kind, message string, opts ...Option) Spec {
	s := Spec{
		Kind:     kind,
		Message:  message,
		Duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Validate reports the first problem with s, wrapped in
// ErrInvalidNotification.
func (s Spec) Validate() error {
	if err := validate.Required(s.Message); err != nil {
		return fmt.Errorf("%w: message %w", ErrInvalidNotification, err)
	}
	if s.Kind != "" && !s.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidNotification, s.Kind)
	}
	if s.Duration < 0 {
		return fmt.Errorf("%w: negative duration %s", ErrInvalidNotification, s.Duration)
	}
	if s.Action != nil {
		if err := validate.Required(s.Action.Label); err != nil {
			return fmt.Errorf("%w: action label %w", ErrInvalidNotification, err)
		}
	}
	return nil
}
