package notify

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/toast/internal/core/clock"
	"github.com/colonyops/toast/pkg/randid"
)

// ErrClosed is returned by Enqueue after the Store has been closed.
var ErrClosed = errors.New("notification store closed")

// IDGenerator produces candidate notification ids.
type IDGenerator func() string

// DefaultIDGenerator returns ids of the form "<prefix>-<seq>-<random>". The
// sequence makes ids from one generator unique for the life of the process.
func DefaultIDGenerator(prefix string) IDGenerator {
	var seq atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s-%d-%s", prefix, seq.Add(1), randid.Generate(9))
	}
}

// Publisher receives a snapshot after every change to the Store. Post is
// called with the Store lock held and must not call back into the Store;
// Dispatch is called after the lock is released.
type Publisher interface {
	Post([]Notification)
	Dispatch()
}

// StoreOptions configures a Store. Zero values select defaults.
type StoreOptions struct {
	Clock        clock.Clock
	IDGenerator  IDGenerator
	Publisher    Publisher
	MaxActive    int // 0 means unlimited
	HistoryLimit int // 0 disables history
	Logger       *zerolog.Logger
}

type entry struct {
	notification Notification
	timer        clock.Handle
}

// Store is the authoritative ordered collection of active notifications.
//
// One mutex guards the collection and the timer scheduler, so enqueue,
// expiry, and dismiss are atomic with respect to a given id. Snapshots are
// posted to the Publisher inside that critical section and dispatched after
// it, which keeps broadcasts in mutation order while letting subscribers call
// back into the Store.
type Store struct {
	mu        sync.Mutex
	clock     clock.Clock
	sched     *clock.Scheduler
	newID     IDGenerator
	pub       Publisher
	maxActive int
	logger    zerolog.Logger

	order    []string
	entries  map[string]*entry
	issued   map[string]struct{}
	history  history
	fallback uint64
	closed   bool
}

// NewStore creates an empty Store.
func NewStore(opts StoreOptions) *Store {
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}

	newID := opts.IDGenerator
	if newID == nil {
		newID = DefaultIDGenerator("toast")
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Store{
		clock:     c,
		sched:     clock.NewScheduler(c),
		newID:     newID,
		pub:       opts.Publisher,
		maxActive: max(opts.MaxActive, 0),
		logger:    logger,
		entries:   make(map[string]*entry),
		issued:    make(map[string]struct{}),
		history:   history{limit: max(opts.HistoryLimit, 0)},
	}
}

// Enqueue validates spec, appends it as a new notification, schedules its
// expiry when it has a finite lifetime, and returns the assigned id.
func (s *Store) Enqueue(spec Spec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if spec.Kind == "" {
		spec.Kind = KindInfo
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}

	now := s.clock.Now()
	e := &entry{
		notification: Notification{
			ID:          s.uniqueIDLocked(),
			Kind:        spec.Kind,
			Message:     spec.Message,
			Description: spec.Description,
			Duration:    spec.Duration,
			Action:      spec.Action,
			CreatedAt:   now,
		},
	}

	if spec.Duration > 0 {
		e.notification.ExpiresAt = now.Add(spec.Duration)
		e.timer = s.sched.Schedule(spec.Duration, func() { s.expire(e) })
	}

	id := e.notification.ID
	s.entries[id] = e
	s.order = append(s.order, id)

	evicted := 0
	if s.maxActive > 0 {
		for len(s.order) > s.maxActive {
			s.removeLocked(s.order[0], ReasonEvicted, now)
			evicted++
		}
	}

	s.postLocked()
	s.mu.Unlock()
	s.dispatch()

	s.logger.Debug().
		Str("id", id).
		Str("kind", string(spec.Kind)).
		Dur("duration", spec.Duration).
		Int("evicted", evicted).
		Msg("notification enqueued")

	return id, nil
}

// Dismiss removes the notification with the given id and cancels its timer.
// It reports whether anything was removed; absent ids are not an error.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	if _, ok := s.entries[id]; !ok {
		s.mu.Unlock()
		return false
	}
	s.removeLocked(id, ReasonDismissed, s.clock.Now())
	s.postLocked()
	s.mu.Unlock()
	s.dispatch()

	s.logger.Debug().Str("id", id).Msg("notification dismissed")
	return true
}

// DismissAll removes every active notification in a single step and returns
// how many were removed.
func (s *Store) DismissAll() int {
	s.mu.Lock()
	n := len(s.order)
	if n == 0 {
		s.mu.Unlock()
		return 0
	}
	now := s.clock.Now()
	for _, id := range slices.Clone(s.order) {
		s.removeLocked(id, ReasonCleared, now)
	}
	s.postLocked()
	s.mu.Unlock()
	s.dispatch()

	s.logger.Debug().Int("count", n).Msg("notifications cleared")
	return n
}

// List returns a copy of the active notifications in insertion order.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the active notification with the given id.
func (s *Store) Get(id string) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Notification{}, false
	}
	return e.notification, true
}

// Len returns the number of active notifications.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// PendingTimers returns the number of scheduled expiries.
func (s *Store) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.Pending()
}

// History returns retired notifications, newest first.
func (s *Store) History() []Retired {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.newestFirst()
}

// ClearHistory forgets all retired notifications.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.clear()
}

// Close cancels every pending expiry and drops the active notifications
// without broadcasting. Enqueue fails afterwards; Dismiss and List keep
// working on the empty Store. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	cancelled := s.sched.CancelAll()
	s.entries = make(map[string]*entry)
	s.order = nil

	s.logger.Debug().Int("timers", cancelled).Msg("notification store closed")
}

// expire is the timer callback for e. A callback that lost the race with a
// dismiss finds its entry gone (or replaced) and does nothing.
func (s *Store) expire(e *entry) {
	s.mu.Lock()
	id := e.notification.ID
	if cur, ok := s.entries[id]; !ok || cur != e {
		s.mu.Unlock()
		return
	}
	s.sched.Release(e.timer)
	e.timer = 0
	s.removeLocked(id, ReasonExpired, s.clock.Now())
	s.postLocked()
	s.mu.Unlock()
	s.dispatch()

	s.logger.Debug().Str("id", id).Msg("notification expired")
}

// removeLocked deletes id, cancels its timer, and records it in history.
func (s *Store) removeLocked(id string, reason Reason, now time.Time) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	if e.timer != 0 {
		s.sched.Cancel(e.timer)
		e.timer = 0
	}
	delete(s.entries, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	s.history.add(Retired{Notification: e.notification, Reason: reason, RetiredAt: now})
}

// uniqueIDLocked asks the generator for an id this Store has never issued.
// A generator that keeps colliding gets a store-local suffix.
func (s *Store) uniqueIDLocked() string {
	const attempts = 8
	var id string
	for range attempts {
		id = s.newID()
		if _, taken := s.issued[id]; !taken && id != "" {
			s.issued[id] = struct{}{}
			return id
		}
	}
	for {
		s.fallback++
		candidate := id + "-" + strconv.FormatUint(s.fallback, 36)
		if _, taken := s.issued[candidate]; !taken {
			s.issued[candidate] = struct{}{}
			return candidate
		}
	}
}

func (s *Store) snapshotLocked() []Notification {
	out := make([]Notification, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].notification)
	}
	return out
}

func (s *Store) postLocked() {
	if s.pub != nil {
		s.pub.Post(s.snapshotLocked())
	}
}

func (s *Store) dispatch() {
	if s.pub != nil {
		s.pub.Dispatch()
	}
}
