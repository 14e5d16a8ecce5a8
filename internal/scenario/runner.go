package scenario

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/toast/internal/core/clock"
	"github.com/colonyops/toast/internal/core/clock/fakeclock"
	"github.com/colonyops/toast/internal/core/config"
	"github.com/colonyops/toast/internal/core/eventbus"
	"github.com/colonyops/toast/internal/core/logging"
	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/internal/core/toast"
)

// minHistory is the retirement history a run keeps regardless of
// configuration; retired expectations read from it.
const minHistory = 256

// ErrExpectation is wrapped by StepError when an expect step fails.
var ErrExpectation = errors.New("expectation failed")

// StepError locates a failure within a scenario.
type StepError struct {
	File  string
	Index int // 1-based
	Op    string
	Err   error
}

func (e *StepError) Error() string {
	loc := fmt.Sprintf("step %d (%s)", e.Index, e.Op)
	if e.File != "" {
		loc = e.File + ": " + loc
	}
	return loc + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error { return e.Err }

// Item is one toast within a recorded broadcast.
type Item struct {
	ID         string        `json:"id"`
	Alias      string        `json:"alias,omitempty"`
	Kind       notify.Kind   `json:"kind"`
	Message    string        `json:"message"`
	Remaining  time.Duration `json:"-"`
	Persistent bool          `json:"persistent,omitempty"`
	Action     string        `json:"action,omitempty"`

	RemainingMS int64 `json:"remaining_ms"`
}

// Broadcast is a recorded delivery of the active list. Step 0 is the
// delivery made on subscribe.
type Broadcast struct {
	RunID  string        `json:"run_id"`
	Seq    int           `json:"seq"`
	Step   int           `json:"step"`
	At     time.Duration `json:"-"`
	AtMS   int64         `json:"at_ms"`
	Active []Item        `json:"active"`
}

// Result summarizes a run.
type Result struct {
	RunID      string        `json:"run_id"`
	Name       string        `json:"name"`
	File       string        `json:"file,omitempty"`
	Steps      int           `json:"steps"`
	Elapsed    time.Duration `json:"-"`
	ElapsedMS  int64         `json:"elapsed_ms"`
	Broadcasts []Broadcast   `json:"-"`
	Err        error         `json:"-"`
}

// Passed reports whether every step succeeded.
func (r *Result) Passed() bool { return r.Err == nil }

// Options configures a Runner.
type Options struct {
	Toasts config.ToastsConfig
	// VirtualTime runs waits on a fake clock. Otherwise waits sleep.
	VirtualTime bool
	Logger      zerolog.Logger
	// OnBroadcast is called for every recorded broadcast, in order.
	OnBroadcast func(Broadcast)
}

// Runner executes scenarios, each against its own toast.Service.
type Runner struct {
	opts   Options
	logger zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	if opts.Toasts.DefaultDuration <= 0 {
		opts.Toasts.DefaultDuration = config.DefaultConfig().Toasts.DefaultDuration
	}
	return &Runner{
		opts:   opts,
		logger: logging.ComponentOf(opts.Logger, "scenario"),
	}
}

// run holds the state of one scenario execution.
type run struct {
	id      string
	sc      *Scenario
	svc     *toast.Service
	bus     *eventbus.EventBus
	clock   clock.Clock
	fake    *fakeclock.Clock
	start   time.Time
	logger  zerolog.Logger
	onCast  func(Broadcast)
	aliases map[string]string // alias -> id
	names   map[string]string // id -> alias
	seen    map[string]bool

	mu      sync.Mutex
	step    int
	pending string // alias for the next toast that appears
	casts   []Broadcast
}

// Run executes sc. The returned Result is always non-nil; its Err matches
// the returned error.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	ru := &run{
		id:      uuid.NewString(),
		sc:      sc,
		onCast:  r.opts.OnBroadcast,
		aliases: map[string]string{},
		names:   map[string]string{},
		seen:    map[string]bool{},
	}
	ru.logger = r.logger.With().Str("run_id", ru.id).Logger()

	if r.opts.VirtualTime {
		ru.fake = fakeclock.New()
		ru.clock = ru.fake
	} else {
		ru.clock = clock.Real()
	}
	ru.start = ru.clock.Now()

	cfg := sc.Toasts.Apply(r.opts.Toasts)
	cfg.HistoryLimit = max(cfg.HistoryLimit, minHistory)

	ru.svc = toast.New(
		toast.WithClock(ru.clock),
		toast.WithConfig(cfg),
		toast.WithLogger(ru.logger),
	)
	defer func() { _ = ru.svc.Close() }()

	ctx = logging.WithFields(ctx, logging.Fields{SessionID: ru.svc.SessionID(), Scenario: sc.Name})

	ru.bus = eventbus.New(16)
	eventbus.NewNotificationRouter(ru.bus, ru.svc, ru.logger).Register()

	unsubscribe, err := ru.svc.Subscribe(ru.record)
	if err != nil {
		return ru.result(err), err
	}
	defer unsubscribe()

	ru.logger.Debug().Ctx(ctx).Int("steps", len(sc.Steps)).Msg("scenario started")

	for i, step := range sc.Steps {
		ru.mu.Lock()
		ru.step = i + 1
		ru.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return ru.result(err), err
		}
		if err := ru.exec(ctx, step); err != nil {
			serr := &StepError{File: sc.File, Index: i + 1, Op: step.Op(), Err: err}
			ru.logger.Debug().Ctx(ctx).Err(serr).Msg("scenario failed")
			return ru.result(serr), serr
		}
	}

	ru.logger.Debug().Ctx(ctx).Msg("scenario passed")
	return ru.result(nil), nil
}

func (ru *run) result(err error) *Result {
	ru.mu.Lock()
	defer ru.mu.Unlock()
	elapsed := ru.clock.Now().Sub(ru.start)
	return &Result{
		RunID:      ru.id,
		Name:       ru.sc.Name,
		File:       ru.sc.File,
		Steps:      ru.step,
		Elapsed:    elapsed,
		ElapsedMS:  elapsed.Milliseconds(),
		Broadcasts: slices.Clone(ru.casts),
		Err:        err,
	}
}

// record is the run's toast subscriber. Timers fire on other goroutines when
// virtual time is off.
func (ru *run) record(list toast.Feed) {
	now := ru.clock.Now()

	ru.mu.Lock()
	if ru.pending != "" && len(list) > 0 {
		if newest := list[len(list)-1].ID; !ru.seen[newest] {
			ru.aliases[ru.pending] = newest
			ru.names[newest] = ru.pending
			ru.pending = ""
		}
	}
	for _, n := range list {
		ru.seen[n.ID] = true
	}

	b := Broadcast{
		RunID:  ru.id,
		Seq:    len(ru.casts),
		Step:   ru.step,
		At:     now.Sub(ru.start),
		AtMS:   now.Sub(ru.start).Milliseconds(),
		Active: make([]Item, 0, len(list)),
	}
	for _, n := range list {
		remaining := n.Remaining(now)
		item := Item{
			ID:          n.ID,
			Alias:       ru.names[n.ID],
			Kind:        n.Kind,
			Message:     n.Message,
			Remaining:   remaining,
			Persistent:  n.Persistent(),
			RemainingMS: remaining.Milliseconds(),
		}
		if n.Action != nil {
			item.Action = n.Action.Label
		}
		b.Active = append(b.Active, item)
	}
	ru.casts = append(ru.casts, b)
	ru.mu.Unlock()

	if ru.onCast != nil {
		ru.onCast(b)
	}
}

// expectAlias names the next new toast that is broadcast.
func (ru *run) expectAlias(name string) {
	ru.mu.Lock()
	ru.pending = name
	ru.mu.Unlock()
}

// aliasOf returns the id for name, clearing any unclaimed pending alias.
func (ru *run) aliasOf(name string) (string, bool) {
	ru.mu.Lock()
	defer ru.mu.Unlock()
	ru.pending = ""
	id, ok := ru.aliases[name]
	return id, ok
}

func (ru *run) exec(ctx context.Context, step Step) error {
	switch {
	case step.Show != nil:
		return ru.show(step.Show)
	case step.Dismiss != "":
		id, ok := ru.aliasOf(step.Dismiss)
		if !ok {
			return fmt.Errorf("unknown alias %q", step.Dismiss)
		}
		return ru.svc.Dismiss(id)
	case step.DismissAll:
		return ru.svc.DismissAll()
	case step.Wait > 0:
		return ru.wait(ctx, step.Wait)
	case step.Emit != nil:
		return ru.emit(step.Emit)
	case step.Expect != nil:
		return ru.expect(step.Expect)
	}
	return fmt.Errorf("step has no operation")
}

func (ru *run) show(s *ShowStep) error {
	kind := notify.KindInfo
	if s.Kind != "" {
		k, err := notify.ParseKind(s.Kind)
		if err != nil {
			return err
		}
		kind = k
	}

	duration := ru.svc.DefaultDuration()
	switch {
	case s.Persistent:
		duration = notify.Infinite
	case s.Duration != nil:
		duration = *s.Duration
	}

	spec := notify.Spec{
		Kind:        kind,
		Message:     s.Message,
		Description: s.Description,
		Duration:    duration,
	}
	if s.Action != "" {
		label := s.Action
		spec.Action = &notify.Action{Label: label, Run: func() {
			ru.logger.Debug().Str("action", label).Msg("action invoked")
		}}
	}

	ru.expectAlias(s.As)
	_, err := ru.svc.Show(spec)
	if s.As != "" {
		ru.aliasOf(s.As)
	}
	return err
}

func (ru *run) wait(ctx context.Context, d time.Duration) error {
	if ru.fake != nil {
		ru.fake.Advance(d)
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ru *run) emit(e *EmitStep) error {
	if err := ru.bus.Emit(e.Event, e.Attrs); err != nil {
		return err
	}
	ru.expectAlias(e.As)
	ru.bus.Drain()

	if e.As == "" {
		return nil
	}
	if _, ok := ru.aliasOf(e.As); !ok {
		return fmt.Errorf("event %s produced no toast for alias %q", e.Event, e.As)
	}
	return nil
}

func (ru *run) expect(exp *Expect) error {
	list, err := ru.svc.List()
	if err != nil {
		return err
	}

	ru.mu.Lock()
	names := maps.Clone(ru.names)
	aliases := maps.Clone(ru.aliases)
	casts := len(ru.casts)
	ru.mu.Unlock()

	label := func(n notify.Notification) string {
		if a := names[n.ID]; a != "" {
			return a
		}
		return n.Message
	}

	var problems []string

	if exp.Count != nil && len(list) != *exp.Count {
		problems = append(problems, fmt.Sprintf("count: want %d, got %d", *exp.Count, len(list)))
	}

	if exp.Active != nil {
		got := make([]string, len(list))
		match := true
		for i, n := range list {
			got[i] = label(n)
			if i >= len(exp.Active) || (exp.Active[i] != names[n.ID] && exp.Active[i] != n.Message) {
				match = false
			}
		}
		if !match || len(exp.Active) != len(list) {
			problems = append(problems, fmt.Sprintf("active: want [%s], got [%s]",
				strings.Join(exp.Active, ", "), strings.Join(got, ", ")))
		}
	}

	if exp.Broadcasts != nil {
		n := casts - 1 // the subscribe delivery is not a change
		if n != *exp.Broadcasts {
			problems = append(problems, fmt.Sprintf("broadcasts: want %d, got %d", *exp.Broadcasts, n))
		}
	}

	if len(exp.Retired) > 0 {
		history, err := ru.svc.History()
		if err != nil {
			return err
		}
		for _, a := range slices.Sorted(maps.Keys(exp.Retired)) {
			want := notify.Reason(exp.Retired[a])
			got, ok := retiredReason(history, aliases[a])
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("retired %s: still active or unknown", a))
			case got != want:
				problems = append(problems, fmt.Sprintf("retired %s: want %s, got %s", a, want, got))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrExpectation, strings.Join(problems, "; "))
	}
	return nil
}

func retiredReason(history []notify.Retired, id string) (notify.Reason, bool) {
	if id == "" {
		return "", false
	}
	for _, r := range history {
		if r.ID == id {
			return r.Reason, true
		}
	}
	return "", false
}
