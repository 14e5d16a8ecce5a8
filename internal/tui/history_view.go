package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/internal/core/styles"
)

const (
	historyWidthPct  = 65
	historyMinWidth  = 60
	historyMaxHeight = 30
	historyMargin    = 4
	historyChrome    = 6 // title + divider + help + spacing
)

// HistorySource lists retired notifications, newest first.
type HistorySource interface {
	History() ([]notify.Retired, error)
	ClearHistory() error
}

// HistoryView displays a scrollable list of retired notifications.
type HistoryView struct {
	source   HistorySource
	viewport viewport.Model
	width    int
	height   int
}

// NewHistoryView creates a history panel sized for a width x height screen.
func NewHistoryView(source HistorySource, width, height int) *HistoryView {
	panelWidth := calcHistoryWidth(width)
	panelHeight := min(height-historyMargin, historyMaxHeight)
	contentHeight := max(panelHeight-historyChrome, 1)

	h := &HistoryView{
		source:   source,
		viewport: viewport.New(panelWidth-4, contentHeight),
		width:    width,
		height:   height,
	}
	h.Refresh()
	return h
}

// Refresh reloads the history from the source.
func (h *HistoryView) Refresh() {
	if h.source == nil {
		h.viewport.SetContent(styles.MutedStyle.Render("No notifications"))
		return
	}

	history, err := h.source.History()
	if err != nil {
		log.Error().Err(err).Msg("failed to load notification history")
		h.viewport.SetContent(styles.ErrorStyle.Render(fmt.Sprintf("failed to load notifications: %v", err)))
		return
	}

	if len(history) == 0 {
		h.viewport.SetContent(styles.MutedStyle.Render("No notifications"))
		return
	}

	lines := make([]string, 0, len(history))
	for _, r := range history {
		lines = append(lines, formatRetired(r))
	}
	h.viewport.SetContent(strings.Join(lines, "\n"))
}

func formatRetired(r notify.Retired) string {
	ts := styles.MutedStyle.Render(r.RetiredAt.Format("15:04:05"))
	icon := lipgloss.NewStyle().Foreground(styles.KindColor(r.Kind)).Render(styles.KindIcon(r.Kind))
	reason := styles.MutedStyle.Render(fmt.Sprintf("(%s)", r.Reason))
	return fmt.Sprintf("%s %s %s %s", ts, icon, r.Message, reason)
}

// ScrollUp scrolls the viewport up.
func (h *HistoryView) ScrollUp() {
	h.viewport.LineUp(1)
}

// ScrollDown scrolls the viewport down.
func (h *HistoryView) ScrollDown() {
	h.viewport.LineDown(1)
}

// Clear deletes all retired notifications and refreshes the view.
func (h *HistoryView) Clear() error {
	if h.source == nil {
		return nil
	}
	if err := h.source.ClearHistory(); err != nil {
		return err
	}
	h.Refresh()
	return nil
}

// View renders the history panel centered in the screen.
func (h *HistoryView) View() string {
	panelWidth := calcHistoryWidth(h.width)

	scrollInfo := ""
	if h.viewport.TotalLineCount() > h.viewport.VisibleLineCount() {
		scrollInfo = styles.MutedStyle.Render(
			fmt.Sprintf(" (%.0f%%)", h.viewport.ScrollPercent()*100),
		)
	}

	divider := styles.MutedStyle.Render(strings.Repeat("─", max(panelWidth-6, 1)))
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.HeaderStyle.Render("History"+scrollInfo),
		divider,
		h.viewport.View(),
		styles.HelpStyle.Render("[j/k] scroll  [D] clear  [esc] close"),
	)

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.CurrentPalette.Primary).
		Padding(0, 1).
		Width(panelWidth).
		Render(content)

	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, panel)
}

func calcHistoryWidth(termWidth int) int {
	available := max(termWidth-historyMargin, 1)
	target := termWidth * historyWidthPct / 100
	return min(max(target, historyMinWidth), available)
}
