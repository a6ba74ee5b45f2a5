package tui

import "github.com/charmbracelet/lipgloss"

// Theme colors used throughout the viewer
const (
	ColorAccent    = "86"  // titles, position
	ColorHighlight = "205" // selection, borders
	ColorDanger    = "196" // errors, delete
	ColorMuted     = "241" // hints
	ColorWarning   = "208" // expected conditions
	ColorMarked    = "42"
)

// Styles contains the shared styles of the viewer
var Styles = struct {
	Title        lipgloss.Style
	TitleWarning lipgloss.Style

	Box        lipgloss.Style
	BoxDanger  lipgloss.Style
	BoxNotice  lipgloss.Style
	BoxCompact lipgloss.Style

	Name     lipgloss.Style
	Position lipgloss.Style
	Marked   lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Hint     lipgloss.Style
	Empty    lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	TitleWarning: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorDanger)),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(1, 2).
		Margin(1),
	BoxDanger: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDanger)).
		Padding(1, 2).
		Margin(1),
	BoxNotice: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorWarning)).
		Padding(1, 2).
		Margin(1),
	BoxCompact: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1).
		Margin(1),
	Name: lipgloss.NewStyle().
		Bold(true),
	Position: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccent)),
	Marked: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMarked)).
		Bold(true),
	Selected: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Hint: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Empty: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Italic(true),
}
