package session

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorAccent = lipgloss.Color("208") // orange
	colorMuted  = lipgloss.Color("245")
	colorOK     = lipgloss.Color("2")
	colorWarn   = lipgloss.Color("220")
	colorError  = lipgloss.Color("1")
)

// styles holds the terminal styles used by the session
type styles struct {
	Title lipgloss.Style
	Key   lipgloss.Style
	Label lipgloss.Style
	Muted lipgloss.Style
	OK    lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
}

// newStyles builds styles bound to w. With color disabled every style is plain.
func newStyles(w io.Writer, color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}

	r := lipgloss.NewRenderer(w)
	return styles{
		Title: r.NewStyle().Bold(true).Foreground(colorAccent),
		Key:   r.NewStyle().Bold(true).Foreground(colorAccent),
		Label: r.NewStyle(),
		Muted: r.NewStyle().Foreground(colorMuted),
		OK:    r.NewStyle().Foreground(colorOK),
		Warn:  r.NewStyle().Foreground(colorWarn),
		Error: r.NewStyle().Bold(true).Foreground(colorError),
	}
}
