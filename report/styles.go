package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	passColor   = lipgloss.Color("#00ff00")
	failColor   = lipgloss.Color("#ff0000")
	accentColor = lipgloss.Color("#00ffaa")
	mutedColor  = lipgloss.Color("#888888")
)

// styles renders console output for one writer. Color is dropped
// automatically when the writer is not a terminal.
type styles struct {
	pass    lipgloss.Style
	fail    lipgloss.Style
	header  lipgloss.Style
	details lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		pass:    r.NewStyle().Foreground(passColor).Bold(true),
		fail:    r.NewStyle().Foreground(failColor).Bold(true),
		header:  r.NewStyle().Foreground(accentColor).Bold(true),
		details: r.NewStyle().Foreground(mutedColor),
	}
}
