package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/toast/internal/core/eventbus"
	"github.com/colonyops/toast/internal/core/toast"
	"github.com/colonyops/toast/internal/profiler"
	"github.com/colonyops/toast/internal/tui"
	"github.com/colonyops/toast/pkg/utils"
)

// heldLogLimit caps log output buffered while the alt screen is active.
const heldLogLimit = 1 << 20

type DemoCmd struct {
	flags *Flags

	// Command-specific flags
	profilerPort int
	maxVisible   int
}

// NewDemoCmd creates a new demo command
func NewDemoCmd(flags *Flags) *DemoCmd {
	return &DemoCmd{flags: flags}
}

// Flags returns the demo flags for registration on the root command
func (cmd *DemoCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "serve pprof and /debug/toasts on the specified port (e.g., 6060)",
			Sources:     cli.EnvVars("TOAST_PROFILER_PORT"),
			Destination: &cmd.profilerPort,
		},
		&cli.IntFlag{
			Name:        "max-visible",
			Usage:       "number of toasts stacked on screen",
			Value:       5,
			Destination: &cmd.maxVisible,
		},
	}
}

// Register adds the demo command to the application
func (cmd *DemoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "demo",
		Usage:     "Interactive toast playground",
		UsageText: "toast demo [options]",
		Description: `Opens a terminal playground. Keys produce success, error, warning, info,
sticky, and actionable toasts; 'v' emits application events through the
event bus. Press '?' for all keys.`,
		Flags:  cmd.Flags(),
		Action: cmd.run,
	})
	return app
}

// Run executes the demo. Exported for use as default command.
func (cmd *DemoCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *DemoCmd) run(ctx context.Context, _ *cli.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("toast demo needs an interactive terminal; use 'toast run' for scripted sessions")
	}

	cfg := cmd.flags.Settings()

	// Without a log file, stderr logging would draw over the alt screen.
	if cmd.flags.LogFile == "" {
		held := &utils.DeferredWriter{Limit: heldLogLimit}
		prev := log.Logger
		log.Logger = log.Logger.Output(zerolog.ConsoleWriter{Out: held, NoColor: true, TimeFormat: time.Kitchen})
		defer func() {
			log.Logger = prev
			_ = held.Flush(os.Stderr)
		}()
	}

	svc := toast.New(
		toast.WithConfig(cfg.Toasts),
		toast.WithLogger(log.Logger),
	)
	defer func() { _ = svc.Close() }()

	busCtx, cancelBus := context.WithCancel(ctx)
	defer cancelBus()
	bus := eventbus.New(64)
	go bus.Start(busCtx)
	eventbus.NewNotificationRouter(bus, svc, log.Logger).Register()

	if cmd.profilerPort > 0 {
		profServer := profiler.New(cmd.profilerPort, profiler.WithToasts(svc))
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().
			Str("url", fmt.Sprintf("http://%s/debug/toasts", profServer.Addr())).
			Msg("toast debug endpoint available")
	}

	m, err := tui.New(tui.Options{
		Service:    svc,
		Bus:        bus,
		ToastWidth: cfg.TUI.Width,
		MaxVisible: cmd.maxVisible,
		Markdown:   cfg.TUI.MarkdownEnabled(),
	})
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run demo: %w", err)
	}
	return nil
}
