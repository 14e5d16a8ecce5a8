package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/toast/internal/core/eventbus"
	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/internal/core/styles"
	"github.com/colonyops/toast/internal/core/toast"
)

// Options configures the demo Model.
type Options struct {
	Service    *toast.Service
	Bus        *eventbus.EventBus // optional; enables the app event key
	ToastWidth int
	MaxVisible int
	Markdown   bool
	Now        func() time.Time
}

// Model is an interactive playground: keys produce toasts through the
// service and the toast stack renders whatever the service broadcasts.
type Model struct {
	svc *toast.Service
	bus *eventbus.EventBus

	controller  *ToastController
	toasts      *ToastView
	buffer      *FeedBuffer
	unsubscribe func()

	keys    keyMap
	help    help.Model
	history *HistoryView

	width   int
	height  int
	status  string
	counter int
	event   int
}

// New subscribes a Model to opts.Service.
func New(opts Options) (*Model, error) {
	if opts.Service == nil {
		return nil, toast.ErrNotInitialized
	}

	controller := NewToastController(opts.MaxVisible)
	buffer := NewFeedBuffer()

	unsubscribe, err := opts.Service.Subscribe(buffer.Push)
	if err != nil {
		return nil, fmt.Errorf("subscribe to toasts: %w", err)
	}

	return &Model{
		svc:         opts.Service,
		bus:         opts.Bus,
		controller:  controller,
		toasts:      NewToastView(controller, opts.ToastWidth, opts.Markdown, opts.Now),
		buffer:      buffer,
		unsubscribe: unsubscribe,
		keys:        defaultKeyMap(),
		help:        help.New(),
	}, nil
}

// Close detaches the Model from the service.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) Init() tea.Cmd {
	return m.buffer.WaitForSignal()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.history != nil {
			m.history = NewHistoryView(m.svc, m.width, m.height)
		}
		return m, nil

	case feedMsg:
		m.controller.Sync(msg)
		if m.history != nil {
			m.history.Refresh()
		}
		cmds := []tea.Cmd{m.buffer.WaitForSignal()}
		if m.controller.NeedsTick() && !m.controller.Ticking() {
			m.controller.SetTicking(true)
			cmds = append(cmds, scheduleToastTick())
		}
		return m, tea.Batch(cmds...)

	case toastTickMsg:
		if !m.controller.NeedsTick() {
			m.controller.SetTicking(false)
			return m, nil
		}
		return m, scheduleToastTick()

	case tea.KeyMsg:
		if m.history != nil {
			return m.updateHistory(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m *Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.History):
		m.history = nil
	case key.Matches(msg, m.keys.Up):
		m.history.ScrollUp()
	case key.Matches(msg, m.keys.Down):
		m.history.ScrollDown()
	case key.Matches(msg, m.keys.Clear):
		if err := m.history.Clear(); err != nil {
			m.setError(err)
		}
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Success):
		m.produce(m.svc.Success, "Changes saved", notify.WithDescription("All edits were written."))
	case key.Matches(msg, m.keys.Error):
		m.produce(m.svc.Error, "Upload failed", notify.WithDescription("The server answered **503**. Try again later."))
	case key.Matches(msg, m.keys.Warning):
		m.produce(m.svc.Warning, "Storage almost full", notify.WithDescription("`92%` of your quota is used."))
	case key.Matches(msg, m.keys.Info):
		m.produce(m.svc.Info, "New version available")
	case key.Matches(msg, m.keys.Persistent):
		m.produce(m.svc.Info, "Stays until dismissed", notify.WithDuration(notify.Infinite))
	case key.Matches(msg, m.keys.WithAction):
		m.produce(m.svc.Warning, "Task deleted", notify.WithAction("Undo", func() {
			_, _ = m.svc.Success("Task restored")
		}))
	case key.Matches(msg, m.keys.Event):
		m.emitEvent()
	case key.Matches(msg, m.keys.Dismiss):
		if n, ok := m.controller.Newest(); ok {
			m.check(m.svc.Dismiss(n.ID))
		}
	case key.Matches(msg, m.keys.DismissAll):
		m.check(m.svc.DismissAll())
	case key.Matches(msg, m.keys.Run):
		m.runAction()
	case key.Matches(msg, m.keys.History):
		m.history = NewHistoryView(m.svc, m.width, m.height)
	}
	return m, nil
}

func (m *Model) produce(fn func(string, ...notify.Option) (string, error), message string, opts ...notify.Option) {
	m.counter++
	id, err := fn(fmt.Sprintf("%s #%d", message, m.counter), opts...)
	if err != nil {
		m.setError(err)
		return
	}
	m.status = "shown " + id
}

// runAction invokes the newest toast's action and dismisses that toast.
func (m *Model) runAction() {
	n, ok := m.controller.NewestWithAction()
	if !ok {
		m.status = "no toast has an action"
		return
	}
	m.check(m.svc.Dismiss(n.ID))
	if n.Action.Run != nil {
		n.Action.Run()
	}
	m.status = fmt.Sprintf("ran %q on %s", n.Action.Label, n.ID)
}

var demoEvents = []struct {
	name  string
	attrs map[string]string
}{
	{"task.created", map[string]string{"title": "Write release notes"}},
	{"task.failed", map[string]string{"operation": "update", "error": "409 conflict"}},
	{"auth.signed-in", map[string]string{"user": "ada"}},
	{"api.unreachable", map[string]string{"endpoint": "/api/tasks", "error": "connection refused"}},
	{"api.recovered", map[string]string{"endpoint": "/api/tasks"}},
	{"auth.signed-out", map[string]string{"user": "ada"}},
}

func (m *Model) emitEvent() {
	if m.bus == nil {
		m.status = "no event bus attached"
		return
	}
	ev := demoEvents[m.event%len(demoEvents)]
	m.event++
	if err := m.bus.Emit(ev.name, ev.attrs); err != nil {
		m.setError(err)
		return
	}
	m.status = "emitted " + ev.name
}

func (m *Model) check(err error) {
	if err != nil {
		m.setError(err)
	}
}

func (m *Model) setError(err error) {
	if errors.Is(err, toast.ErrNotInitialized) {
		m.status = "toast session closed"
	} else {
		m.status = err.Error()
	}
	log.Debug().Err(err).Msg("demo action failed")
}

func (m *Model) View() string {
	if m.history != nil {
		return m.history.View()
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.HeaderStyle.Render(styles.IconBell+" toast demo"),
		styles.MutedStyle.Render(fmt.Sprintf("%d active", len(m.controller.toasts))),
		m.status,
		m.help.View(m.keys),
	)

	if m.width == 0 || m.height == 0 {
		if stack := m.toasts.View(); stack != "" {
			return lipgloss.JoinVertical(lipgloss.Left, body, stack)
		}
		return body
	}
	return m.toasts.Place(body, m.width, m.height)
}
