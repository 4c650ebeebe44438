package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thedjpetersen/flow-like-water/internal/event"
	"github.com/thedjpetersen/flow-like-water/internal/orchestrator"
)

// Watch runs the orchestrator while showing the live watch view. It blocks
// until the run finishes and the view exits, or until the user quits, which
// cancels the run's context. The run's error is returned unchanged.
func Watch(ctx context.Context, orch *orchestrator.Orchestrator, workflow string, refresh time.Duration) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(orch, workflow, refresh))

	// Forward every engine event into the view. Send is safe from the
	// run goroutine.
	subID := orch.SubscribeAll(func(e event.Event) {
		p.Send(eventMsg{event: e})
	})
	defer orch.Unsubscribe(subID)

	runErr := make(chan error, 1)
	go func() {
		runErr <- orch.Run(runCtx)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-runErr
		return err
	}

	// The view exits on run.completed or on user quit. A quit before
	// completion cancels the run.
	cancel()
	return <-runErr
}
