package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toast/internal/core/clock/fakeclock"
	"github.com/colonyops/toast/internal/core/eventbus"
	"github.com/colonyops/toast/internal/core/toast"
	"github.com/colonyops/toast/pkg/tuitest"
)

func newTestModel(t *testing.T, bus *eventbus.EventBus) (*Model, *toast.Service, *fakeclock.Clock) {
	t.Helper()
	fc := fakeclock.New()
	svc := toast.New(toast.WithClock(fc))
	t.Cleanup(func() { _ = svc.Close() })

	m, err := New(Options{Service: svc, Bus: bus, Now: fc.Now})
	require.NoError(t, err)
	t.Cleanup(m.Close)

	pump(t, m)
	return m, svc, fc
}

// pump moves the newest broadcast into the model, as the bubbletea loop
// would after WaitForSignal returns.
func pump(t *testing.T, m *Model) tea.Cmd {
	t.Helper()
	list, ok := m.buffer.Drain()
	if !ok {
		return nil
	}
	_, cmd := m.Update(feedMsg(list))
	return cmd
}

func press(t *testing.T, m *Model, msg tea.KeyMsg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	pump(t, m)
	return cmd
}

func TestNew_RequiresService(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, toast.ErrNotInitialized)

	svc := toast.New()
	require.NoError(t, svc.Close())
	_, err = New(Options{Service: svc})
	require.ErrorIs(t, err, toast.ErrNotInitialized)
}

func TestModel_ProducerKeys(t *testing.T) {
	m, svc, _ := newTestModel(t, nil)

	for _, r := range []rune{'s', 'e', 'w', 'i', 'p', 'a'} {
		press(t, m, tuitest.KeyPress(r))
	}

	list, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, list, 6)
	assert.Len(t, m.controller.toasts, 6)
	assert.True(t, list[4].Persistent())
	require.NotNil(t, list[5].Action)
	assert.Equal(t, "Undo", list[5].Action.Label)
	assert.Contains(t, m.status, "shown ")
}

func TestModel_TickStartsForTimedToasts(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	_, _ = m.Update(tuitest.KeyPress('p'))
	cmd := pump(t, m)
	require.NotNil(t, cmd)
	assert.False(t, m.controller.Ticking(), "persistent toasts do not animate")

	_, _ = m.Update(tuitest.KeyPress('s'))
	pump(t, m)
	assert.True(t, m.controller.Ticking())

	_, cmd = m.Update(toastTickMsg(time.Now()))
	assert.NotNil(t, cmd, "keeps ticking while a countdown is visible")
}

func TestModel_TickStopsWhenNothingCountsDown(t *testing.T) {
	m, _, fc := newTestModel(t, nil)

	press(t, m, tuitest.KeyPress('s'))
	require.True(t, m.controller.Ticking())

	fc.Advance(10 * time.Second)
	pump(t, m)

	_, cmd := m.Update(toastTickMsg(time.Now()))
	assert.Nil(t, cmd)
	assert.False(t, m.controller.Ticking())
}

func TestModel_ToastsExpireFromView(t *testing.T) {
	m, _, fc := newTestModel(t, nil)

	press(t, m, tuitest.KeyPress('s'))
	assert.Contains(t, tuitest.StripANSI(m.View()), "Changes saved #1")

	fc.Advance(6 * time.Second)
	pump(t, m)
	assert.NotContains(t, tuitest.StripANSI(m.View()), "Changes saved #1")
}

func TestModel_DismissKeys(t *testing.T) {
	m, svc, _ := newTestModel(t, nil)

	press(t, m, tuitest.KeyPress('p'))
	press(t, m, tuitest.KeyPress('p'))
	press(t, m, tuitest.KeyPress('x'))

	list, _ := svc.List()
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Message, "#1")

	press(t, m, tuitest.KeyPress('p'))
	press(t, m, tuitest.KeyPress('X'))
	list, _ = svc.List()
	assert.Empty(t, list)
	assert.False(t, m.controller.HasToasts())
}

func TestModel_EnterRunsNewestAction(t *testing.T) {
	m, svc, _ := newTestModel(t, nil)

	press(t, m, tuitest.KeyEnter())
	assert.Equal(t, "no toast has an action", m.status)

	press(t, m, tuitest.KeyPress('a'))
	press(t, m, tuitest.KeyPress('i'))
	press(t, m, tuitest.KeyEnter())

	list, _ := svc.List()
	require.Len(t, list, 2)
	assert.Contains(t, list[0].Message, "New version available")
	assert.Equal(t, "Task restored", list[1].Message, "undo action ran")
	assert.Contains(t, m.status, `ran "Undo"`)
}

func TestModel_EventKey(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	press(t, m, tuitest.KeyPress('v'))
	assert.Equal(t, "no event bus attached", m.status)

	bus := eventbus.New(8)
	m2, svc, _ := newTestModel(t, bus)
	eventbus.NewNotificationRouter(bus, svc, zerolog.Nop()).Register()

	press(t, m2, tuitest.KeyPress('v'))
	assert.Equal(t, "emitted task.created", m2.status)
	bus.Drain()
	pump(t, m2)

	list, _ := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Task created", list[0].Message)
}

func TestModel_HistoryPanel(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	_, _ = m.Update(tuitest.WindowSize(100, 30))

	press(t, m, tuitest.KeyPress('p'))
	press(t, m, tuitest.KeyPress('x'))
	press(t, m, tuitest.KeyPress('H'))
	require.NotNil(t, m.history)

	out := tuitest.StripANSI(m.View())
	assert.Contains(t, out, "History")
	assert.Contains(t, out, "(dismissed)")

	press(t, m, tuitest.KeyPress('s'))
	assert.Empty(t, m.controller.toasts, "producer keys are inactive while history is open")

	press(t, m, tuitest.KeyPress('D'))
	assert.Contains(t, tuitest.StripANSI(m.View()), "No notifications")

	press(t, m, tuitest.KeyEsc())
	assert.Nil(t, m.history)
}

func TestModel_HelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	assert.NotContains(t, tuitest.StripANSI(m.View()), "dismiss all")

	press(t, m, tuitest.KeyPress('?'))
	assert.Contains(t, tuitest.StripANSI(m.View()), "dismiss all")
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	cmd := press(t, m, tuitest.KeyPress('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_ClosedService(t *testing.T) {
	m, svc, _ := newTestModel(t, nil)
	require.NoError(t, svc.Close())

	press(t, m, tuitest.KeyPress('s'))
	assert.Equal(t, "toast session closed", m.status)
}
