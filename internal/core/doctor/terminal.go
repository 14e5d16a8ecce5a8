package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Package-level variables to allow test overrides.
var (
	isTerminalFunc = term.IsTerminal
	getSizeFunc    = term.GetSize
	getenvFunc     = os.Getenv
)

// TerminalCheck reports whether the interactive commands can render.
type TerminalCheck struct {
	fd         int
	toastWidth int
}

// NewTerminalCheck checks the terminal on fd against the configured toast
// width.
func NewTerminalCheck(fd uintptr, toastWidth int) *TerminalCheck {
	return &TerminalCheck{fd: int(fd), toastWidth: toastWidth}
}

func (c *TerminalCheck) Name() string {
	return "Terminal"
}

func (c *TerminalCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if !isTerminalFunc(c.fd) {
		result.Items = append(result.Items, CheckItem{
			Label:  "TTY",
			Status: StatusWarn,
			Detail: "output is not a terminal; demo and compose need one",
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{Label: "TTY", Status: StatusPass})

	width, height, err := getSizeFunc(c.fd)
	switch {
	case err != nil:
		result.Items = append(result.Items, CheckItem{Label: "Size", Status: StatusWarn, Detail: err.Error()})
	case width < c.toastWidth:
		result.Items = append(result.Items, CheckItem{
			Label:  "Size",
			Status: StatusWarn,
			Detail: fmt.Sprintf("%dx%d is narrower than tui.width (%d)", width, height, c.toastWidth),
		})
	default:
		result.Items = append(result.Items, CheckItem{Label: "Size", Status: StatusPass, Detail: fmt.Sprintf("%dx%d", width, height)})
	}

	colorterm := strings.ToLower(getenvFunc("COLORTERM"))
	if colorterm == "truecolor" || colorterm == "24bit" {
		result.Items = append(result.Items, CheckItem{Label: "Color", Status: StatusPass, Detail: "truecolor"})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "Color",
			Status: StatusWarn,
			Detail: "COLORTERM is not truecolor; theme colors are approximated",
		})
	}

	return result
}
