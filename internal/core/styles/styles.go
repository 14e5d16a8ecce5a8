// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/colonyops/toast/internal/core/notify"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Toast styles, rebuilt by SetTheme.
var (
	ToastBaseStyle        lipgloss.Style
	ToastSuccessStyle     lipgloss.Style
	ToastErrorStyle       lipgloss.Style
	ToastWarningStyle     lipgloss.Style
	ToastInfoStyle        lipgloss.Style
	ToastMessageStyle     lipgloss.Style
	ToastDescriptionStyle lipgloss.Style
	ToastActionStyle      lipgloss.Style
	ToastProgressStyle    lipgloss.Style

	HeaderStyle  lipgloss.Style
	HelpStyle    lipgloss.Style
	MutedStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	ToastBaseStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Foreground(p.Foreground)
	ToastSuccessStyle = ToastBaseStyle.BorderForeground(p.Success)
	ToastErrorStyle = ToastBaseStyle.BorderForeground(p.Error)
	ToastWarningStyle = ToastBaseStyle.BorderForeground(p.Warning)
	ToastInfoStyle = ToastBaseStyle.BorderForeground(p.Primary)

	ToastMessageStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true)
	ToastDescriptionStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	ToastActionStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(p.Surface).
		Foreground(p.Secondary).
		Bold(true)
	ToastProgressStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)
}

// SetThemeByName activates a built-in theme. Unknown names fall back to
// DefaultTheme and report false.
func SetThemeByName(name string) bool {
	p, ok := GetPalette(name)
	if !ok {
		p = themes[DefaultTheme]
	}
	SetTheme(p)
	return ok
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

// KindColor returns the accent color for a notification kind.
func KindColor(k notify.Kind) lipgloss.Color {
	switch k {
	case notify.KindSuccess:
		return CurrentPalette.Success
	case notify.KindError:
		return CurrentPalette.Error
	case notify.KindWarning:
		return CurrentPalette.Warning
	default:
		return CurrentPalette.Primary
	}
}

// KindStyle returns the bordered box style for a notification kind.
func KindStyle(k notify.Kind) lipgloss.Style {
	switch k {
	case notify.KindSuccess:
		return ToastSuccessStyle
	case notify.KindError:
		return ToastErrorStyle
	case notify.KindWarning:
		return ToastWarningStyle
	default:
		return ToastInfoStyle
	}
}

// Fade blends from toward to by t in [0, 1] in Lab space. Colors that do not
// parse as hex return from unchanged.
func Fade(from, to lipgloss.Color, t float64) lipgloss.Color {
	a, err := colorful.Hex(string(from))
	if err != nil {
		return from
	}
	b, err := colorful.Hex(string(to))
	if err != nil {
		return from
	}
	t = min(max(t, 0), 1)
	return lipgloss.Color(a.BlendLab(b, t).Clamped().Hex())
}

func colorHexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	cc, err := colorful.Hex(string(c))
	if err != nil {
		return nil
	}
	hex := cc.Hex()
	return &hex
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	fg := colorHexPtr(CurrentPalette.Foreground)
	primary := colorHexPtr(CurrentPalette.Primary)
	secondary := colorHexPtr(CurrentPalette.Secondary)
	muted := colorHexPtr(CurrentPalette.Muted)

	cfg.Document.Color = muted
	cfg.Document.Margin = uintPtr(0)
	cfg.Document.BlockPrefix = ""
	cfg.Document.BlockSuffix = ""

	cfg.Paragraph.Color = muted
	cfg.Heading.Color = primary
	cfg.Strong.Color = fg
	cfg.Emph.Color = fg

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary
	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}

func uintPtr(u uint) *uint { return &u }
