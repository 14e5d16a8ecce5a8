package scenario

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toast/internal/core/config"
)

func virtualRunner(opts ...func(*Options)) *Runner {
	o := Options{VirtualTime: true}
	for _, fn := range opts {
		fn(&o)
	}
	return NewRunner(o)
}

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(doc))
	require.NoError(t, err)
	return sc
}

func TestRunner_Testdata(t *testing.T) {
	all, err := LoadAll("testdata/**/*.yaml")
	require.NoError(t, err)

	for _, sc := range all {
		t.Run(sc.Name, func(t *testing.T) {
			res, err := virtualRunner().Run(context.Background(), sc)
			require.NoError(t, err)
			assert.True(t, res.Passed())
			assert.Equal(t, len(sc.Steps), res.Steps)
			assert.NotEmpty(t, res.RunID)
		})
	}
}

func TestRunner_VirtualTimeElapsed(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "auto_dismiss.yaml"))
	require.NoError(t, err)

	start := time.Now()
	res, err := virtualRunner().Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, res.Elapsed)
	assert.Equal(t, int64(5000), res.ElapsedMS)
	assert.Less(t, time.Since(start), time.Second, "virtual waits do not sleep")
}

func TestRunner_RecordsBroadcasts(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "auto_dismiss.yaml"))
	require.NoError(t, err)

	var seen []Broadcast
	res, err := virtualRunner(func(o *Options) {
		o.OnBroadcast = func(b Broadcast) { seen = append(seen, b) }
	}).Run(context.Background(), sc)
	require.NoError(t, err)

	require.Len(t, res.Broadcasts, 5)
	assert.Equal(t, res.Broadcasts, seen)

	first := res.Broadcasts[0]
	assert.Equal(t, 0, first.Seq)
	assert.Empty(t, first.Active, "subscribe delivers the empty list")

	shown := res.Broadcasts[1]
	assert.Equal(t, 1, shown.Step)
	require.Len(t, shown.Active, 1)
	assert.Equal(t, "saved", shown.Active[0].Alias, "alias is known when the enqueue is broadcast")
	assert.Equal(t, 5*time.Second, shown.Active[0].Remaining)

	expired := res.Broadcasts[3]
	assert.Equal(t, 6, expired.Step)
	assert.Equal(t, 5*time.Second, expired.At)
	require.Len(t, expired.Active, 1)
	assert.Equal(t, "sticky", expired.Active[0].Alias)
	assert.True(t, expired.Active[0].Persistent)

	for i, b := range res.Broadcasts {
		assert.Equal(t, i, b.Seq)
		assert.Equal(t, res.RunID, b.RunID)
	}
}

func TestRunner_FailedExpectation(t *testing.T) {
	sc := mustParse(t, `
name: wrong order
steps:
  - show: { as: a, message: first }
  - show: { as: b, message: second }
  - expect: { active: [b, a], broadcasts: 1 }
  - dismiss_all: true
`)
	sc.File = "order.yaml"

	res, err := virtualRunner().Run(context.Background(), sc)
	require.Error(t, err)
	assert.False(t, res.Passed())
	assert.Equal(t, 3, res.Steps)

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 3, serr.Index)
	assert.Equal(t, "expect", serr.Op)
	require.ErrorIs(t, err, ErrExpectation)
	assert.Contains(t, err.Error(), "order.yaml: step 3 (expect)")
	assert.Contains(t, err.Error(), "active: want [b, a], got [a, b]")
	assert.Contains(t, err.Error(), "broadcasts: want 1, got 2")
}

func TestRunner_RetiredStillActive(t *testing.T) {
	sc := mustParse(t, `
name: still here
steps:
  - show: { as: a, message: m, persistent: true }
  - expect: { retired: { a: expired } }
`)
	_, err := virtualRunner().Run(context.Background(), sc)
	require.ErrorIs(t, err, ErrExpectation)
	assert.Contains(t, err.Error(), "retired a: still active or unknown")
}

func TestRunner_MaxActiveOverride(t *testing.T) {
	sc := mustParse(t, `
name: cap
toasts: { max_active: 2 }
steps:
  - show: { as: a, message: one }
  - show: { as: b, message: two }
  - show: { as: c, message: three }
  - expect: { active: [b, c], retired: { a: evicted } }
  - dismiss_all: true
  - expect: { count: 0, retired: { b: cleared, c: cleared } }
`)
	_, err := virtualRunner().Run(context.Background(), sc)
	require.NoError(t, err)
}

func TestNewRunner_DefaultsOnlyDuration(t *testing.T) {
	r := NewRunner(Options{
		VirtualTime: true,
		Toasts:      config.ToastsConfig{MaxActive: 1, HistoryLimit: 7, IDPrefix: "n"},
	})
	assert.Equal(t, config.ToastsConfig{
		DefaultDuration: config.DefaultConfig().Toasts.DefaultDuration,
		MaxActive:       1,
		HistoryLimit:    7,
		IDPrefix:        "n",
	}, r.opts.Toasts)

	sc := mustParse(t, `
name: capped
steps:
  - show: { as: a, message: one }
  - show: { as: b, message: two }
  - expect: { active: [b], retired: { a: evicted } }
`)
	_, err := r.Run(context.Background(), sc)
	require.NoError(t, err)
}

func TestRunner_DefaultDurationOverride(t *testing.T) {
	sc := mustParse(t, `
name: short
toasts: { default_duration: 1s }
steps:
  - show: { as: quick, message: quick }
  - show: { as: slow, message: slow, duration: 10s }
  - wait: 1s
  - expect: { active: [slow], retired: { quick: expired } }
`)
	_, err := virtualRunner().Run(context.Background(), sc)
	require.NoError(t, err)
}

func TestRunner_EmitWithoutToast(t *testing.T) {
	sc := mustParse(t, `
name: recovered twice
steps:
  - emit: { event: api.recovered, as: nothing, attrs: { endpoint: /x } }
`)
	_, err := virtualRunner().Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `produced no toast for alias "nothing"`)
}

func TestRunner_EmitAction(t *testing.T) {
	sc := mustParse(t, `
name: failure
steps:
  - emit: { event: task.failed, as: failed, attrs: { operation: delete, error: "409" } }
  - expect: { active: ["Could not delete task"] }
  - dismiss: failed
  - expect: { count: 0 }
`)
	_, err := virtualRunner().Run(context.Background(), sc)
	require.NoError(t, err)
}

func TestRunner_ShowAction(t *testing.T) {
	sc := mustParse(t, `
name: action
steps:
  - show: { as: undo, kind: warning, message: Deleted, action: Undo }
`)
	res, err := virtualRunner().Run(context.Background(), sc)
	require.NoError(t, err)

	last := res.Broadcasts[len(res.Broadcasts)-1]
	require.Len(t, last.Active, 1)
	assert.Equal(t, "Undo", last.Active[0].Action)
	assert.Equal(t, "warning", string(last.Active[0].Kind))
}

func TestRunner_ContextCancelled(t *testing.T) {
	sc := mustParse(t, `
name: cancelled
steps:
  - show: { message: m }
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := virtualRunner().Run(ctx, sc)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Steps)
}

func TestRunner_RealTime(t *testing.T) {
	sc := mustParse(t, `
name: real
steps:
  - show: { as: a, message: m, duration: 20ms }
  - wait: 200ms
  - expect: { count: 0, retired: { a: expired } }
`)
	res, err := NewRunner(Options{VirtualTime: false}).Run(context.Background(), sc)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Elapsed, 200*time.Millisecond)
}

func TestRunner_RealTimeWaitCancelled(t *testing.T) {
	sc := mustParse(t, `
name: long wait
steps:
  - wait: 1h
`)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewRunner(Options{}).Run(ctx, sc)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "wait", serr.Op)
}
