package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/toast/internal/core/styles"
	"github.com/colonyops/toast/internal/scenario"
	"github.com/colonyops/toast/pkg/iojson"
)

type RunCmd struct {
	flags *Flags

	// Command-specific flags
	json     bool
	realTime bool
	failFast bool
}

// NewRunCmd creates a new run command
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

// Register adds the run command to the application
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Run toast scenario files",
		UsageText: "toast run [options] <pattern>...",
		Description: `Runs YAML scenario files against a fresh toast session each and prints
every broadcast of the active list.

Patterns support ** globs:
  toast run scenarios/**/*.yaml

Waits use virtual time unless --real-time is set or scenarios.virtual_time is
false in the config. Use --json for one JSON object per line.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print broadcasts and results as JSON lines",
				Destination: &cmd.json,
			},
			&cli.BoolFlag{
				Name:        "real-time",
				Usage:       "sleep through waits instead of using virtual time",
				Destination: &cmd.realTime,
			},
			&cli.BoolFlag{
				Name:        "fail-fast",
				Usage:       "stop after the first failing scenario",
				Destination: &cmd.failFast,
			},
		},
		ShellComplete: ScenarioFileCompleter(),
		Action:        cmd.run,
	})

	return app
}

func (cmd *RunCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("at least one scenario pattern is required")
	}

	scenarios, err := scenario.LoadAll(c.Args().Slice()...)
	if err != nil {
		return err
	}

	failed, err := cmd.runAll(ctx, c.Root().Writer, scenarios)
	if err != nil {
		return err
	}
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

type resultLine struct {
	Type   string `json:"type"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
	*scenario.Result
}

type broadcastLine struct {
	Type string `json:"type"`
	scenario.Broadcast
}

// runAll executes scenarios in order and returns how many failed. Only
// output errors abort the run.
func (cmd *RunCmd) runAll(ctx context.Context, w io.Writer, scenarios []*scenario.Scenario) (int, error) {
	cfg := cmd.flags.Settings()

	var writeErr error
	report := func(b scenario.Broadcast) {
		if writeErr != nil {
			return
		}
		if cmd.json {
			writeErr = iojson.WriteLine(w, broadcastLine{Type: "broadcast", Broadcast: b})
			return
		}
		_, writeErr = fmt.Fprintln(w, formatBroadcast(b))
	}

	runner := scenario.NewRunner(scenario.Options{
		Toasts:      cfg.Toasts,
		VirtualTime: cfg.Scenarios.VirtualTimeEnabled() && !cmd.realTime,
		Logger:      log.Logger,
		OnBroadcast: report,
	})

	passed, failed := 0, 0
	for _, sc := range scenarios {
		if !cmd.json {
			if _, err := fmt.Fprintln(w, formatHeader(sc)); err != nil {
				return failed, err
			}
		}

		res, runErr := runner.Run(ctx, sc)
		if writeErr != nil {
			return failed, writeErr
		}
		if runErr != nil {
			failed++
		} else {
			passed++
		}

		if cmd.json {
			line := resultLine{Type: "result", Passed: res.Passed(), Result: res}
			if runErr != nil {
				line.Error = runErr.Error()
			}
			if err := iojson.WriteLine(w, line); err != nil {
				return failed, err
			}
		} else if _, err := fmt.Fprintln(w, formatResult(res)); err != nil {
			return failed, err
		}

		if runErr != nil && (cmd.failFast || ctx.Err() != nil) {
			break
		}
	}

	if !cmd.json {
		summary := styles.SuccessStyle.Render(fmt.Sprintf("%d passed", passed))
		if failed > 0 {
			summary += "  " + styles.ErrorStyle.Render(fmt.Sprintf("%d failed", failed))
		}
		if _, err := fmt.Fprintln(w, summary); err != nil {
			return failed, err
		}
	}

	return failed, nil
}

func formatHeader(sc *scenario.Scenario) string {
	header := styles.HeaderStyle.Render("▶ " + sc.Name)
	if sc.File != "" {
		header += " " + styles.MutedStyle.Render(sc.File)
	}
	return header
}

func formatBroadcast(b scenario.Broadcast) string {
	prefix := styles.MutedStyle.Render(fmt.Sprintf("  %-8s step %-3d", "+"+b.At.String(), b.Step))
	if len(b.Active) == 0 {
		return prefix + " " + styles.MutedStyle.Render("(empty)")
	}

	parts := make([]string, 0, len(b.Active))
	for _, item := range b.Active {
		name := item.Message
		if item.Alias != "" {
			name = item.Alias
		}
		left := "∞"
		if !item.Persistent {
			left = item.Remaining.Round(time.Millisecond).String()
		}
		parts = append(parts, fmt.Sprintf("%s %s", styles.KindIcon(item.Kind), lipgloss.NewStyle().Foreground(styles.KindColor(item.Kind)).Render(name))+
			styles.MutedStyle.Render(" "+left))
	}
	return prefix + " " + strings.Join(parts, "  ")
}

func formatResult(res *scenario.Result) string {
	if res.Passed() {
		return styles.SuccessStyle.Render(fmt.Sprintf("✔ %s", res.Name)) +
			styles.MutedStyle.Render(fmt.Sprintf(" (%d steps, %s)", res.Steps, res.Elapsed))
	}
	return styles.ErrorStyle.Render(fmt.Sprintf("✘ %s: %v", res.Name, res.Err))
}
