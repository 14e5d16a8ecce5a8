package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/toast/internal/core/doctor"
	"github.com/colonyops/toast/internal/core/styles"
	"github.com/colonyops/toast/pkg/iojson"
)

type DoctorCmd struct {
	flags  *Flags
	format string
	strict bool
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "doctor",
		Usage:     "Check the configuration and the terminal",
		UsageText: "toast doctor [options]",
		Description: `Reports whether the config file loads and validates, and whether the
terminal can show the demo: a TTY, wide enough for tui.width, with truecolor.
Exits 1 when a check fails, or with --strict when a check warns.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "treat warnings as failures",
				Destination: &cmd.strict,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) checks() []doctor.Check {
	width := 0
	if cmd.flags.Config != nil {
		width = cmd.flags.Config.TUI.Width
	}
	return []doctor.Check{
		doctor.NewConfigCheck(cmd.flags.Config, cmd.flags.ConfigPath),
		doctor.NewTerminalCheck(os.Stdout.Fd(), width),
	}
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	report := doctor.NewReport(doctor.RunAll(ctx, cmd.checks()), cmd.strict)

	w := c.Root().Writer
	switch cmd.format {
	case "json":
		if err := iojson.WriteWith(w, os.Stderr, report); err != nil {
			return err
		}
	case "text":
		writeDoctorText(w, report)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", cmd.format)
	}

	if !report.Healthy {
		return cli.Exit("", 1)
	}
	return nil
}

func statusIcon(s doctor.Status) string {
	switch s {
	case doctor.StatusWarn:
		return styles.WarningStyle.Render("●")
	case doctor.StatusFail:
		return styles.ErrorStyle.Render("✘")
	default:
		return styles.SuccessStyle.Render("✔")
	}
}

func writeDoctorText(w io.Writer, report doctor.Report) {
	var b strings.Builder

	b.WriteString(styles.HeaderStyle.Render(styles.IconBell + " toast doctor"))
	b.WriteString("\n")
	b.WriteString(styles.MutedStyle.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")

	for _, result := range report.Checks {
		fmt.Fprintf(&b, "%s %s\n", statusIcon(result.Status()), styles.HeaderStyle.Render(result.Name))
		for _, item := range result.Items {
			line := "  " + statusIcon(item.Status) + " " + item.Label
			if item.Detail != "" {
				line += " " + styles.MutedStyle.Render(item.Detail)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	counts := report.Summary
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.SuccessStyle.Render(fmt.Sprintf("%d passed", counts.Passed)), "  ",
		styles.WarningStyle.Render(fmt.Sprintf("%d warnings", counts.Warned)), "  ",
		styles.ErrorStyle.Render(fmt.Sprintf("%d failed", counts.Failed)),
	))
	b.WriteString("\n")

	_, _ = io.WriteString(w, b.String())
}
