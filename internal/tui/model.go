// Package tui implements the live watch view for workflow runs. It renders
// the task tree with per-node states while the orchestrator executes in a
// background goroutine, streaming engine events into the view through the
// event bus.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thedjpetersen/flow-like-water/internal/event"
	"github.com/thedjpetersen/flow-like-water/internal/orchestrator"
)

// maxEventLines is how many recent event lines the footer keeps.
const maxEventLines = 6

// Messages

// tickMsg drives periodic re-renders between events.
type tickMsg time.Time

// eventMsg wraps an engine event forwarded from the bus.
type eventMsg struct {
	event event.Event
}

// Model is the watch view state.
type Model struct {
	orch     *orchestrator.Orchestrator
	workflow string
	refresh  time.Duration

	spinner spinner.Model
	width   int
	height  int

	events []string

	done    bool
	success bool
	runErr  string

	quitting bool
}

// NewModel creates a watch view for the given orchestrator.
// The workflow name is shown in the title bar.
func NewModel(orch *orchestrator.Orchestrator, workflow string, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = 250 * time.Millisecond
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(amberColor)

	return Model{
		orch:     orch,
		workflow: workflow,
		refresh:  refresh,
		spinner:  sp,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.recordEvent(msg.event)
		if done, ok := msg.event.(event.RunCompletedEvent); ok {
			m.done = true
			m.success = done.Success
			m.runErr = done.Error
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// recordEvent appends a formatted line for the footer.
func (m *Model) recordEvent(e event.Event) {
	line := formatEvent(e)
	if line == "" {
		return
	}
	m.events = append(m.events, line)
	if len(m.events) > maxEventLines {
		m.events = m.events[len(m.events)-maxEventLines:]
	}
}

// Done reports whether a run completion event has been observed.
func (m Model) Done() bool {
	return m.done
}
