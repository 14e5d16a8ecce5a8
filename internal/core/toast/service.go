// Package toast is the public entry point for showing transient notifications.
//
// A Service owns one notification Store and one broadcast channel for the
// life of a session. Producers call Show or one of the kind shortcuts;
// renderers Subscribe and receive the full active list after every change.
package toast

import (
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/toast/internal/core/broadcast"
	"github.com/colonyops/toast/internal/core/clock"
	"github.com/colonyops/toast/internal/core/config"
	"github.com/colonyops/toast/internal/core/logging"
	"github.com/colonyops/toast/internal/core/notify"
)

// ErrNotInitialized is returned when a Service is used before New or after
// Close.
var ErrNotInitialized = errors.New("toast service not initialized")

// Option configures a Service.
type Option func(*options)

type options struct {
	clock  clock.Clock
	newID  notify.IDGenerator
	logger zerolog.Logger
	cfg    config.ToastsConfig
}

// WithClock sets the time source. Tests pass a fakeclock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDGenerator overrides how notification ids are produced.
func WithIDGenerator(g notify.IDGenerator) Option {
	return func(o *options) { o.newID = g }
}

// WithLogger sets the base logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConfig applies the toasts section of the application config.
func WithConfig(cfg config.ToastsConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// Feed is the value broadcast to subscribers: the active notifications in
// insertion order.
type Feed = []notify.Notification

// Service is the toast facade. The zero value is not usable; every method
// on it returns ErrNotInitialized.
type Service struct {
	sessionID       string
	store           *notify.Store
	channel         *broadcast.Channel[Feed]
	defaultDuration time.Duration
	logger          zerolog.Logger
	closed          atomic.Bool
}

// New creates a Service with an empty notification list.
func New(opts ...Option) *Service {
	o := options{
		logger: zerolog.Nop(),
		cfg:    config.DefaultConfig().Toasts,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.newID == nil {
		prefix := o.cfg.IDPrefix
		if prefix == "" {
			prefix = "toast"
		}
		o.newID = notify.DefaultIDGenerator(prefix)
	}

	defaultDuration := o.cfg.DefaultDuration
	if defaultDuration <= 0 {
		defaultDuration = notify.DefaultDuration
	}

	sessionID := uuid.NewString()
	logger := logging.ComponentOf(o.logger, "toast").With().Str("session_id", sessionID).Logger()

	channel := broadcast.New(Feed{},
		broadcast.WithClone(slices.Clone[Feed]),
		broadcast.WithLogger[Feed](logger),
	)

	store := notify.NewStore(notify.StoreOptions{
		Clock:        o.clock,
		IDGenerator:  o.newID,
		Publisher:    channel,
		MaxActive:    o.cfg.MaxActive,
		HistoryLimit: o.cfg.HistoryLimit,
		Logger:       &logger,
	})

	logger.Debug().
		Dur("default_duration", defaultDuration).
		Int("max_active", o.cfg.MaxActive).
		Msg("toast session started")

	return &Service{
		sessionID:       sessionID,
		store:           store,
		channel:         channel,
		defaultDuration: defaultDuration,
		logger:          logger,
	}
}

func (s *Service) ready() bool {
	return s != nil && s.store != nil && !s.closed.Load()
}

// SessionID identifies this Service in logs.
func (s *Service) SessionID() string {
	if s == nil {
		return ""
	}
	return s.sessionID
}

// DefaultDuration is the lifetime the kind shortcuts give a notification
// when the caller does not choose one.
func (s *Service) DefaultDuration() time.Duration {
	if s == nil || s.defaultDuration <= 0 {
		return notify.DefaultDuration
	}
	return s.defaultDuration
}

// Show enqueues spec as given and returns its id. A zero Duration keeps the
// notification until it is dismissed.
func (s *Service) Show(spec notify.Spec) (string, error) {
	if !s.ready() {
		return "", ErrNotInitialized
	}
	id, err := s.store.Enqueue(spec)
	if errors.Is(err, notify.ErrClosed) {
		return "", ErrNotInitialized
	}
	return id, err
}

// Success shows a success notification.
func (s *Service) Success(message string, opts ...notify.Option) (string, error) {
	return s.show(notify.KindSuccess, message, opts)
}

// Error shows an error notification.
func (s *Service) Error(message string, opts ...notify.Option) (string, error) {
	return s.show(notify.KindError, message, opts)
}

// Warning shows a warning notification.
func (s *Service) Warning(message string, opts ...notify.Option) (string, error) {
	return s.show(notify.KindWarning, message, opts)
}

// Info shows an informational notification.
func (s *Service) Info(message string, opts ...notify.Option) (string, error) {
	return s.show(notify.KindInfo, message, opts)
}

func (s *Service) show(kind notify.Kind, message string, opts []notify.Option) (string, error) {
	if !s.ready() {
		return "", ErrNotInitialized
	}
	all := make([]notify.Option, 0, len(opts)+1)
	all = append(all, notify.WithDuration(s.defaultDuration))
	all = append(all, opts...)
	return s.Show(notify.NewSpec(kind, message, all...))
}

// Dismiss removes the notification with the given id. Unknown ids are
// ignored.
func (s *Service) Dismiss(id string) error {
	if !s.ready() {
		return ErrNotInitialized
	}
	s.store.Dismiss(id)
	return nil
}

// DismissAll removes every active notification.
func (s *Service) DismissAll() error {
	if !s.ready() {
		return ErrNotInitialized
	}
	s.store.DismissAll()
	return nil
}

// Get returns the active notification with the given id.
func (s *Service) Get(id string) (notify.Notification, bool, error) {
	if !s.ready() {
		return notify.Notification{}, false, ErrNotInitialized
	}
	n, ok := s.store.Get(id)
	return n, ok, nil
}

// List returns the active notifications in insertion order.
func (s *Service) List() ([]notify.Notification, error) {
	if !s.ready() {
		return nil, ErrNotInitialized
	}
	return s.store.List(), nil
}

// History returns retired notifications, newest first.
func (s *Service) History() ([]notify.Retired, error) {
	if !s.ready() {
		return nil, ErrNotInitialized
	}
	return s.store.History(), nil
}

// ClearHistory forgets retired notifications.
func (s *Service) ClearHistory() error {
	if !s.ready() {
		return ErrNotInitialized
	}
	s.store.ClearHistory()
	return nil
}

// Subscribe registers handler. It is called immediately with the current
// list and again after every change until the returned function is called.
func (s *Service) Subscribe(handler func(Feed)) (func(), error) {
	if !s.ready() {
		return nil, ErrNotInitialized
	}
	if handler == nil {
		return nil, errors.New("toast: nil subscriber")
	}
	return s.channel.Subscribe(handler), nil
}

// OnPanic registers fn to observe subscribers that panic during delivery.
func (s *Service) OnPanic(fn func(subscriber uint64, recovered any)) error {
	if !s.ready() {
		return ErrNotInitialized
	}
	s.channel.OnPanic(fn)
	return nil
}

// Close ends the session: pending expiries are cancelled, subscribers are
// dropped, and every later call returns ErrNotInitialized. Closing twice is
// a no-op.
func (s *Service) Close() error {
	if s == nil || s.store == nil {
		return ErrNotInitialized
	}
	if s.closed.Swap(true) {
		return nil
	}
	s.store.Close()
	s.channel.Close()
	s.logger.Debug().Msg("toast session closed")
	return nil
}
