// Package ui holds terminal styling shared by the chat screen and the
// one-shot commands.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Color palette - consistent across all terminal output
var (
	Green  = lipgloss.Color("10")
	Red    = lipgloss.Color("9")
	Grey   = lipgloss.Color("8")
	Blue   = lipgloss.Color("4")
	White  = lipgloss.Color("15")
	Yellow = lipgloss.Color("11")
)

// Status indicators
const (
	SuccessIcon = "✓"
	FailIcon    = "✗"
	PromptIcon  = "❯"
)

// Styles are text styles bound to a renderer.
type Styles struct {
	renderer *lipgloss.Renderer

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Accent   lipgloss.Style

	// Header is the top bar of the chat screen.
	Header lipgloss.Style
	// Input frames the composer.
	Input lipgloss.Style
	// ErrorTurn marks assistant turns that report a backend failure.
	ErrorTurn lipgloss.Style
	// Selected highlights the active slash-command suggestion.
	Selected lipgloss.Style
}

// NewStyles creates styles for the given output.
func NewStyles(output io.Writer) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		renderer: r,

		Title: r.NewStyle().
			Bold(true).
			Foreground(White),

		Subtitle: r.NewStyle().
			Foreground(Grey),

		Success: r.NewStyle().
			Foreground(Green),

		Error: r.NewStyle().
			Foreground(Red),

		Muted: r.NewStyle().
			Foreground(Grey),

		Bold: r.NewStyle().
			Bold(true),

		Accent: r.NewStyle().
			Foreground(Blue),

		Header: r.NewStyle().
			Bold(true).
			Foreground(White).
			Background(Blue).
			Padding(0, 1),

		Input: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Blue).
			Padding(0, 1),

		ErrorTurn: r.NewStyle().
			Foreground(Red).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Red).
			PaddingLeft(1),

		Selected: r.NewStyle().
			Bold(true).
			Foreground(Yellow),
	}
}

// DefaultStyles returns styles for stderr.
func DefaultStyles() *Styles {
	return NewStyles(os.Stderr)
}

// FormatResult returns a styled success/fail result.
func (s *Styles) FormatResult(success bool, msg string) string {
	if success {
		return s.Success.Render(SuccessIcon+" ") + msg
	}
	return s.Error.Render(FailIcon+" ") + msg
}

// Truncate shortens s to width display cells, keeping ANSI sequences intact.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
