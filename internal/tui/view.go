package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/thedjpetersen/flow-like-water/internal/event"
	"github.com/thedjpetersen/flow-like-water/internal/flow"
)

// msRound is the display granularity for durations.
const msRound = time.Millisecond

// View renders the watch screen: title, task tree, recent events, status.
func (m Model) View() string {
	if m.quitting && !m.done {
		return "watch cancelled\n"
	}

	var b strings.Builder

	title := "flow"
	if m.workflow != "" {
		title = "flow · " + m.workflow
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(treeBox.Render(m.renderTree()))
	b.WriteString("\n")

	if len(m.events) > 0 {
		b.WriteString("\n")
		for _, line := range m.events {
			b.WriteString(eventStyle.Render(line))
			b.WriteString("\n")
		}
	}

	if m.done {
		b.WriteString("\n")
		if m.success {
			b.WriteString(successStyle.Render("run completed"))
		} else {
			b.WriteString(errorStyle.Render("run failed: " + m.runErr))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(helpStyle.Render("q: quit"))
		b.WriteString("\n")
	}

	return b.String()
}

// renderTree walks the orchestrator's live tree in registration order.
func (m Model) renderTree() string {
	groups := m.orch.Groups()
	if len(groups) == 0 {
		return eventStyle.Render("no task groups registered")
	}

	var lines []string
	for _, g := range groups {
		lines = append(lines, m.renderNode(g, 0)...)
	}
	return strings.Join(lines, "\n")
}

// renderNode produces the indented lines for one node and its descendants.
func (m Model) renderNode(n flow.Node, depth int) []string {
	indent := strings.Repeat("  ", depth)

	switch n := n.(type) {
	case *flow.Task:
		state := n.State()
		marker := stateGlyph(state)
		if state == flow.StateInProgress {
			marker = m.spinner.View()
		}
		line := fmt.Sprintf("%s%s %s", indent, marker, n.ID())
		if state == flow.StateCompleted && n.Elapsed() > 0 {
			line += fmt.Sprintf(" (%s)", n.Elapsed().Round(msRound))
		}
		return []string{stateStyles[state].Render(line)}

	case *flow.Group:
		state := flow.Render(n).State
		marker := stateGlyph(state)
		if state == flow.StateInProgress {
			marker = m.spinner.View()
		}
		lines := []string{groupStyle.Render(fmt.Sprintf("%s%s %s", indent, marker, n.ID()))}
		for _, child := range n.Children() {
			lines = append(lines, m.renderNode(child, depth+1)...)
		}
		return lines
	}
	return nil
}

// formatEvent renders one engine event as a footer line.
func formatEvent(e event.Event) string {
	switch e := e.(type) {
	case event.TaskStartedEvent:
		return fmt.Sprintf("▸ %s started", e.TaskID)
	case event.TaskCompletedEvent:
		if e.Attempts > 1 {
			return fmt.Sprintf("✓ %s completed after %d attempts (%s)", e.TaskID, e.Attempts, e.Duration.Round(msRound))
		}
		return fmt.Sprintf("✓ %s completed (%s)", e.TaskID, e.Duration.Round(msRound))
	case event.TaskSkippedEvent:
		return fmt.Sprintf("↷ %s skipped (waiting for %s)", e.TaskID, e.Expected)
	case event.GroupCompletedEvent:
		return fmt.Sprintf("● %s", e.Message)
	case event.RunCompletedEvent:
		if e.Success {
			return fmt.Sprintf("run completed: %d group(s)", e.GroupsRun)
		}
		return "run failed: " + e.Error
	case event.ErrorEvent:
		return "error: " + e.Message
	case event.InfoEvent:
		return e.Message
	}
	return ""
}
