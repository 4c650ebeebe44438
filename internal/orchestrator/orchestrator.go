package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/thedjpetersen/flow-like-water/internal/errors"
	"github.com/thedjpetersen/flow-like-water/internal/event"
	"github.com/thedjpetersen/flow-like-water/internal/flow"
	"github.com/thedjpetersen/flow-like-water/internal/logging"
)

// Orchestrator owns root-level task groups, walks them depth-first, decides
// per task whether to execute or skip it, drives each task's retry protocol,
// and emits lifecycle notifications on its embedded bus.
//
// Registration methods are safe for concurrent use, as are Snapshot and
// SerializedState while a run is in progress. Calling Run concurrently or
// reentrantly on one Orchestrator, or mutating a group's children mid-run,
// is undefined behavior and must be prevented by the caller.
type Orchestrator struct {
	*event.Bus

	logger *logging.Logger

	mu     sync.RWMutex
	order  []string
	groups map[string]*flow.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithBus sets the event bus the orchestrator publishes on. Defaults to a
// fresh bus. Sharing a bus lets several components observe one run.
func WithBus(b *event.Bus) Option {
	return func(o *Orchestrator) {
		o.Bus = b
	}
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		groups: make(map[string]*flow.Group),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Bus == nil {
		o.Bus = event.NewBus()
	}
	if o.logger == nil {
		o.logger = logging.NopLogger()
	}
	return o
}

// traversal is the call-scoped context threaded through one run. It carries
// the pending branch target: a single value shared across the entire run, not
// scoped per group.
type traversal struct {
	nextExpected string
}

// AddGroup registers a root-level task group. Re-adding an existing id
// replaces that group in place, keeping its position in the run order.
// Nil groups are ignored.
func (o *Orchestrator) AddGroup(g *flow.Group) {
	if g == nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.groups[g.ID()]; !exists {
		o.order = append(o.order, g.ID())
	}
	o.groups[g.ID()] = g
}

// RemoveGroup removes the root group with the given id.
// Returns true if the group was found and removed.
func (o *Orchestrator) RemoveGroup(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.groups[id]; !exists {
		return false
	}

	delete(o.groups, id)
	for i, groupID := range o.order {
		if groupID == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// Group returns the root group with the given id.
func (o *Orchestrator) Group(id string) (*flow.Group, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	g, ok := o.groups[id]
	return g, ok
}

// Groups returns the root groups in registration order.
func (o *Orchestrator) Groups() []*flow.Group {
	o.mu.RLock()
	defer o.mu.RUnlock()

	groups := make([]*flow.Group, 0, len(o.order))
	for _, id := range o.order {
		groups = append(groups, o.groups[id])
	}
	return groups
}

// Run visits every root group in registration order, traversing each one
// depth-first. The first task failure aborts the run: no remaining siblings,
// groups, or root groups execute, and the task's final error is returned
// unchanged. A run.completed event is published in both outcomes.
func (o *Orchestrator) Run(ctx context.Context) error {
	tr := &traversal{}

	groupsRun := 0
	for _, g := range o.Groups() {
		if err := o.traverse(ctx, tr, g); err != nil {
			o.Publish(event.NewRunCompletedEvent(false, groupsRun, err.Error()))
			return err
		}
		groupsRun++
	}

	o.Publish(event.NewRunCompletedEvent(true, groupsRun, ""))
	return nil
}

// RunTask executes a single task by id via the normal per-task protocol.
// It scans only the direct children of each root group; tasks inside nested
// groups are not found. Returns a not-found error when no direct child task
// matches.
func (o *Orchestrator) RunTask(ctx context.Context, id string) error {
	for _, g := range o.Groups() {
		child, ok := g.Child(id)
		if !ok {
			continue
		}
		task, isTask := child.(*flow.Task)
		if !isTask {
			continue
		}
		return o.executeOne(ctx, &traversal{}, task, g.ID())
	}
	return errors.NewNotFoundError("task", id)
}

// Snapshot renders every root group into its serializable state tree.
func (o *Orchestrator) Snapshot() flow.Snapshot {
	snap := make(flow.Snapshot)
	for _, g := range o.Groups() {
		snap[g.ID()] = flow.Render(g)
	}
	return snap
}

// SerializedState returns the snapshot as indented JSON.
func (o *Orchestrator) SerializedState() ([]byte, error) {
	return json.MarshalIndent(o.Snapshot(), "", "  ")
}

// Reset returns every task in every registered tree to its initial state so
// the forest can be run again.
func (o *Orchestrator) Reset() {
	for _, g := range o.Groups() {
		resetGroup(g)
	}
}

func resetGroup(g *flow.Group) {
	for _, child := range g.Children() {
		switch n := child.(type) {
		case *flow.Task:
			n.Reset()
		case *flow.Group:
			resetGroup(n)
		}
	}
}

// traverse visits a group's children in insertion order: tasks are executed,
// nested groups recursed into, each fully awaited before the next begins.
// After all children are visited it publishes a group.completed event.
func (o *Orchestrator) traverse(ctx context.Context, tr *traversal, g *flow.Group) error {
	log := o.logger.WithGroup(g.ID())
	log.Debug("traversing group", "children", g.Len())

	for _, child := range g.Children() {
		switch n := child.(type) {
		case *flow.Task:
			if err := o.executeOne(ctx, tr, n, g.ID()); err != nil {
				return err
			}
		case *flow.Group:
			if err := o.traverse(ctx, tr, n); err != nil {
				return err
			}
		}
	}

	log.Info("group completed")
	o.Publish(event.NewGroupCompletedEvent(g.ID(), fmt.Sprintf("group %s completed", g.ID())))
	return nil
}

// executeOne runs a single task, honoring the pending branch target.
//
// If a branch target is pending and does not match this task, the task is
// marked skipped and never invoked. Otherwise the task's retry protocol runs;
// a returned id arms the branch target for subsequent tasks, while a task
// that returns nothing clears any pending target (gating is single-shot).
func (o *Orchestrator) executeOne(ctx context.Context, tr *traversal, t *flow.Task, groupID string) error {
	log := o.logger.WithGroup(groupID).WithTask(t.ID())

	if tr.nextExpected != "" && tr.nextExpected != t.ID() {
		t.Skip()
		log.Debug("task skipped", "expected", tr.nextExpected)
		o.Publish(event.NewTaskSkippedEvent(t.ID(), groupID, tr.nextExpected))
		return nil
	}

	o.Publish(event.NewTaskStartedEvent(t.ID(), groupID))
	log.Debug("task started", "retries", t.Retries(), "wait", t.WaitTime())

	next, err := t.Run(ctx)
	if err != nil {
		log.Error("task failed", "attempts", t.Attempts(), "error", err)
		return err
	}

	tr.nextExpected = next

	log.Info("task completed", "attempts", t.Attempts(), "elapsed", t.Elapsed(), "next", next)
	o.Publish(event.NewTaskCompletedEvent(t.ID(), groupID, t.Attempts(), t.Elapsed(), next))
	return nil
}
