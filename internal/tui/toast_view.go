package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/internal/core/styles"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView renders toast notifications and places them in the lower-right
// corner of the screen.
type ToastView struct {
	controller *ToastController
	width      int
	markdown   *glamour.TermRenderer
	now        func() time.Time
}

// NewToastView creates a view over controller. When markdown is true,
// descriptions are rendered with glamour.
func NewToastView(controller *ToastController, width int, markdown bool, now func() time.Time) *ToastView {
	if width <= 0 {
		width = toastWidth
	}
	if now == nil {
		now = time.Now
	}

	v := &ToastView{controller: controller, width: width, now: now}
	if markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithStyles(styles.GlamourStyle()),
			glamour.WithWordWrap(v.innerWidth()),
		)
		if err != nil {
			log.Warn().Err(err).Msg("markdown renderer unavailable, using plain descriptions")
		} else {
			v.markdown = r
		}
	}
	return v
}

// innerWidth is the content width inside border and padding.
func (v *ToastView) innerWidth() int {
	return max(v.width-4, 1)
}

// View renders the toast stack as a single string with toasts stacked
// vertically (oldest at top, newest at bottom).
func (v *ToastView) View() string {
	toasts := v.controller.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts)+1)
	if hidden := v.controller.Hidden(); hidden > 0 {
		rendered = append(rendered, styles.MutedStyle.Render(fmt.Sprintf("+%d more", hidden)))
	}

	now := v.now()
	for _, n := range toasts {
		rendered = append(rendered, v.renderToast(n, now))
	}

	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

func (v *ToastView) renderToast(n notify.Notification, now time.Time) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Foreground(styles.KindColor(n.Kind)).Render(styles.KindIcon(n.Kind)))
	b.WriteString(" ")
	b.WriteString(styles.ToastMessageStyle.Render(n.Message))

	if desc := v.renderDescription(n.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
	}

	if n.Action != nil {
		b.WriteString("\n")
		b.WriteString(styles.ToastActionStyle.Render(n.Action.Label))
		b.WriteString(styles.MutedStyle.Render(" enter"))
	}

	if !n.Persistent() {
		b.WriteString("\n")
		b.WriteString(renderProgress(n, now, v.innerWidth()))
	}

	return styles.KindStyle(n.Kind).Width(v.width - 2).Render(b.String())
}

func (v *ToastView) renderDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	if v.markdown != nil {
		out, err := v.markdown.Render(desc)
		if err == nil {
			return strings.Trim(out, "\n")
		}
		log.Debug().Err(err).Msg("render toast description")
	}
	return styles.ToastDescriptionStyle.Width(v.innerWidth()).Render(desc)
}

// renderProgress draws a bar that empties as the toast approaches expiry
// and fades from the kind color toward the muted color.
func renderProgress(n notify.Notification, now time.Time, width int) string {
	frac := progress(n, now)
	filled := int(frac*float64(width) + 0.5)

	color := styles.Fade(styles.KindColor(n.Kind), styles.CurrentPalette.Muted, 1-frac)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("━", filled))
	rest := styles.ToastProgressStyle.Render(strings.Repeat("─", width-filled))
	return bar + rest
}

// Place positions the toast stack in the lower-right corner of a width x
// height area under body. Toasts that do not fit are cut from the top.
func (v *ToastView) Place(body string, width, height int) string {
	stack := v.View()
	if stack == "" {
		return body
	}

	free := height - lipgloss.Height(body)
	if free <= 0 {
		return body
	}

	if lines := strings.Split(stack, "\n"); len(lines) > free {
		stack = strings.Join(lines[len(lines)-free:], "\n")
	}

	placed := lipgloss.Place(width, free, lipgloss.Right, lipgloss.Bottom, stack)
	return lipgloss.JoinVertical(lipgloss.Left, body, placed)
}
