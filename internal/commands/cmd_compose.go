package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/toast/internal/core/clock"
	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/internal/core/styles"
	"github.com/colonyops/toast/internal/core/toast"
	"github.com/colonyops/toast/internal/core/validate"
	"github.com/colonyops/toast/internal/tui"
	"github.com/colonyops/toast/pkg/iojson"
)

// ComposeInput is the JSON accepted by `toast compose --file`.
type ComposeInput struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	// Duration is a Go duration such as "3s". Empty uses the configured
	// default; "0" or "persistent" never expires.
	Duration string `json:"duration,omitempty"`
	Action   string `json:"action,omitempty"`
}

type ComposeCmd struct {
	flags  *Flags
	input  iojson.FileReader[ComposeInput]
	noWait bool

	clock clock.Clock // nil uses the real clock
}

// NewComposeCmd creates a new compose command
func NewComposeCmd(flags *Flags) *ComposeCmd {
	return &ComposeCmd{flags: flags}
}

// Register adds the compose command to the application
func (cmd *ComposeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "compose",
		Usage:     "Build one toast and watch it until it retires",
		UsageText: "toast compose [options]",
		Description: `Prompts for a toast with an interactive form, renders it, and waits until it
expires. Persistent toasts wait for ctrl+c.

Pass --file or pipe JSON to skip the form:
  echo '{"kind":"success","message":"Deployed","duration":"3s"}' | toast compose`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
			&cli.BoolFlag{
				Name:        "no-wait",
				Usage:       "render the toast and exit without waiting",
				Destination: &cmd.noWait,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ComposeCmd) run(ctx context.Context, c *cli.Command) error {
	var (
		in  ComposeInput
		err error
	)
	if cmd.input.IsSet() || cmd.input.Piped() {
		in, err = cmd.input.Read()
	} else {
		in, err = promptCompose(ctx)
	}
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	_, err = cmd.compose(ctx, c.Root().Writer, in)
	return err
}

func promptCompose(ctx context.Context) (ComposeInput, error) {
	in := ComposeInput{Kind: string(notify.KindInfo)}

	kinds := make([]huh.Option[string], 0, len(notify.Kinds))
	for _, k := range notify.Kinds {
		kinds = append(kinds, huh.NewOption(styles.KindIcon(k)+" "+string(k), string(k)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Kind").
				Options(kinds...).
				Value(&in.Kind),
			huh.NewInput().
				Title("Message").
				Value(&in.Message).
				Validate(validate.Required),
			huh.NewText().
				Title("Description").
				Description("Optional. Rendered as markdown").
				Value(&in.Description),
			huh.NewInput().
				Title("Duration").
				Description("Empty for the default, 0 to keep until dismissed").
				Placeholder("5s").
				Value(&in.Duration).
				Validate(func(s string) error {
					_, err := parseComposeDuration(s, time.Second)
					return err
				}),
			huh.NewInput().
				Title("Action label").
				Description("Optional").
				Value(&in.Action),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return in, err
	}
	return in, nil
}

// parseComposeDuration maps the duration text to a lifetime.
func parseComposeDuration(s string, fallback time.Duration) (time.Duration, error) {
	switch s = strings.TrimSpace(strings.ToLower(s)); s {
	case "":
		return fallback, nil
	case "0", "persistent", "infinite":
		return notify.Infinite, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative")
	}
	return d, nil
}

func composeSpec(in ComposeInput, fallback time.Duration) (notify.Spec, error) {
	kind := notify.KindInfo
	if in.Kind != "" {
		k, err := notify.ParseKind(in.Kind)
		if err != nil {
			return notify.Spec{}, err
		}
		kind = k
	}

	d, err := parseComposeDuration(in.Duration, fallback)
	if err != nil {
		return notify.Spec{}, err
	}

	spec := notify.Spec{
		Kind:        kind,
		Message:     in.Message,
		Description: in.Description,
		Duration:    d,
	}
	if in.Action != "" {
		spec.Action = &notify.Action{Label: in.Action}
	}
	return spec, spec.Validate()
}

// compose shows in, renders it to w, and waits for it to retire unless
// noWait is set. It returns the retirement record; persistent toasts are
// dismissed when ctx ends.
func (cmd *ComposeCmd) compose(ctx context.Context, w io.Writer, in ComposeInput) (notify.Retired, error) {
	cfg := cmd.flags.Settings()

	c := cmd.clock
	if c == nil {
		c = clock.Real()
	}

	// History is how the retirement reason is reported.
	toastsCfg := cfg.Toasts
	toastsCfg.HistoryLimit = max(toastsCfg.HistoryLimit, 1)

	svc := toast.New(
		toast.WithConfig(toastsCfg),
		toast.WithClock(c),
		toast.WithLogger(log.Logger),
	)
	defer func() { _ = svc.Close() }()

	spec, err := composeSpec(in, svc.DefaultDuration())
	if err != nil {
		return notify.Retired{}, err
	}

	var (
		retired = make(chan struct{})
		shown   atomic.Bool
		once    sync.Once
	)
	unsubscribe, err := svc.Subscribe(func(list toast.Feed) {
		if len(list) > 0 {
			shown.Store(true)
			return
		}
		if shown.Load() {
			once.Do(func() { close(retired) })
		}
	})
	if err != nil {
		return notify.Retired{}, err
	}
	defer unsubscribe()

	id, err := svc.Show(spec)
	if err != nil {
		return notify.Retired{}, err
	}

	n, _, _ := svc.Get(id)
	controller := tui.NewToastController(1)
	controller.Sync([]notify.Notification{n})
	view := tui.NewToastView(controller, cfg.TUI.Width, cfg.TUI.MarkdownEnabled(), c.Now)
	_, _ = fmt.Fprintln(w, view.View())

	if cmd.noWait {
		return notify.Retired{Notification: n}, nil
	}

	if n.Persistent() {
		_, _ = fmt.Fprintln(w, styles.MutedStyle.Render("persistent toast, press ctrl+c to dismiss"))
	}

	select {
	case <-retired:
	case <-ctx.Done():
		_ = svc.Dismiss(id)
	}

	history, err := svc.History()
	if err != nil {
		return notify.Retired{}, err
	}
	for _, r := range history {
		if r.ID == id {
			_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(
				fmt.Sprintf("%s after %s", r.Reason, r.RetiredAt.Sub(n.CreatedAt).Round(time.Millisecond))))
			return r, nil
		}
	}
	return notify.Retired{}, fmt.Errorf("toast %s was not retired", id)
}
