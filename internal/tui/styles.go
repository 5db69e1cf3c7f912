package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"soundpills/internal/content"
)

// Palette.
var (
	colorInk     = lipgloss.Color("#101F38")
	colorMuted   = lipgloss.Color("#6b7280")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorWhite   = lipgloss.Color("#ffffff")
)

// Styles holds the renderer's lipgloss styles.
type Styles struct {
	Header   lipgloss.Style
	Card     lipgloss.Style
	Footer   lipgloss.Style
	Warning  lipgloss.Style
	Pill     lipgloss.Style
	Expanded lipgloss.Style
	Glyph    lipgloss.Style
}

// NewStyles returns the default styles.
func NewStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorInk).
			Bold(true).
			Padding(0, 1),
		Card: lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1),
		Warning: lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true),
		Pill: lipgloss.NewStyle().
			Foreground(colorInk).
			Background(lipgloss.Color("#eee")),
		Expanded: lipgloss.NewStyle().
			Underline(true),
		Glyph: lipgloss.NewStyle(),
	}
}

// pillStyle derives the style for one item from its background color and
// class tokens.
func (s Styles) pillStyle(item *content.Item) lipgloss.Style {
	style := s.Pill
	if bg := strings.TrimSpace(item.BgColor); bg != "" && strings.HasPrefix(bg, "#") {
		style = style.Background(lipgloss.Color(bg))
	}
	if item.IsWhite() {
		style = style.Background(colorWhite).Foreground(colorInk).
			BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(colorAccent)
	}
	switch {
	case item.HasClass("size-large"):
		style = style.Bold(true).Padding(0, 2)
	case item.HasClass("size-medium"), item.HasClass("pad"):
		style = style.Padding(0, 1)
	case item.HasClass("size-small"):
		style = style.Faint(true)
	}
	return style
}
