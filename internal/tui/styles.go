package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/thedjpetersen/flow-like-water/internal/flow"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	greenColor   = lipgloss.Color("#10B981") // Green
	amberColor   = lipgloss.Color("#F59E0B") // Amber
	redColor     = lipgloss.Color("#F87171") // Red
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	textColor    = lipgloss.Color("#F9FAFB") // Light text
	borderColor  = lipgloss.Color("#6B7280") // Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	treeBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 2)

	eventStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(redColor)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(greenColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	// Per-state styles for task and group lines
	stateStyles = map[flow.State]lipgloss.Style{
		flow.StateNotStarted: lipgloss.NewStyle().Foreground(mutedColor),
		flow.StateInProgress: lipgloss.NewStyle().Foreground(amberColor),
		flow.StateCompleted:  lipgloss.NewStyle().Foreground(greenColor),
		flow.StateFailed:     lipgloss.NewStyle().Foreground(redColor),
		flow.StateSkipped:    lipgloss.NewStyle().Foreground(mutedColor).Strikethrough(true),
	}
)

// stateGlyph returns the marker rendered before a node's id.
func stateGlyph(s flow.State) string {
	switch s {
	case flow.StateCompleted:
		return "✓"
	case flow.StateFailed:
		return "✗"
	case flow.StateSkipped:
		return "↷"
	case flow.StateInProgress:
		return "" // replaced by the spinner frame
	default:
		return "·"
	}
}
