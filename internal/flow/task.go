package flow

import (
	"context"
	"sync"
	"time"

	"github.com/thedjpetersen/flow-like-water/internal/errors"
)

// ExecuteFunc performs a task's unit of work. A non-empty next value names the
// node the traversal should jump to (skipping non-matching siblings until it is
// reached); an empty value means no branch is requested.
type ExecuteFunc func(ctx context.Context) (next string, err error)

// ConditionFunc is an optional predicate evaluated immediately after a
// successful execute. A false result fails the attempt with ErrConditionNotMet.
type ConditionFunc func(ctx context.Context) (bool, error)

// TaskConfig carries the caller-supplied definition of a task.
type TaskConfig struct {
	// ID is the task's identifier, unique among siblings within one group.
	ID string

	// Execute performs the work. Required.
	Execute ExecuteFunc

	// Condition gates completion after a successful Execute. Optional.
	Condition ConditionFunc

	// Retries is the number of additional attempts after the first.
	Retries int

	// WaitTime is the delay before each retry attempt. Zero means no delay.
	WaitTime time.Duration
}

// Task is the atomic unit of work. It owns its execution function, an optional
// post-execution condition check, retry configuration, and its own run state.
//
// A Task is mutated exclusively by the orchestrator during a run. State
// accessors are safe to call from other goroutines while a run is in progress.
type Task struct {
	id        string
	execute   ExecuteFunc
	condition ConditionFunc
	retries   int
	waitTime  time.Duration

	mu       sync.RWMutex
	state    State
	elapsed  time.Duration
	attempts int
}

// NewTask creates a Task from the given configuration.
func NewTask(cfg TaskConfig) (*Task, error) {
	if cfg.ID == "" {
		return nil, errors.NewValidationError("task id cannot be empty").WithField("ID")
	}
	if cfg.Execute == nil {
		return nil, errors.NewValidationError("task execute function is required").WithField("Execute")
	}
	if cfg.Retries < 0 {
		return nil, errors.NewValidationError("retries must be non-negative").
			WithField("Retries").WithValue(cfg.Retries)
	}
	if cfg.WaitTime < 0 {
		return nil, errors.NewValidationError("wait time must be non-negative").
			WithField("WaitTime").WithValue(cfg.WaitTime)
	}

	return &Task{
		id:        cfg.ID,
		execute:   cfg.Execute,
		condition: cfg.Condition,
		retries:   cfg.Retries,
		waitTime:  cfg.WaitTime,
		state:     StateNotStarted,
	}, nil
}

// ID returns the task's identifier.
func (t *Task) ID() string {
	return t.id
}

// State returns the task's current run state.
func (t *Task) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Elapsed returns the wall-clock duration of the last successful attempt,
// or zero if the task has not completed.
func (t *Task) Elapsed() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.elapsed
}

// Attempts returns the number of attempts made during the most recent Run.
func (t *Task) Attempts() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.attempts
}

// Retries returns the configured number of additional attempts after the first.
func (t *Task) Retries() int {
	return t.retries
}

// WaitTime returns the configured delay before each retry attempt.
func (t *Task) WaitTime() time.Duration {
	return t.waitTime
}

// Attempt performs a single execution attempt: it marks the task in_progress,
// invokes the execute function, then the condition check if one is configured.
// On success it records the elapsed time, marks the task completed, and returns
// the execute function's branch target. On any failure (execute error,
// condition error, or condition false) it marks the task failed and returns
// the error unchanged, except a false condition which yields ErrConditionNotMet.
func (t *Task) Attempt(ctx context.Context) (string, error) {
	t.mu.Lock()
	t.state = StateInProgress
	t.attempts++
	t.mu.Unlock()

	start := time.Now()

	next, err := t.execute(ctx)
	if err == nil && t.condition != nil {
		ok, condErr := t.condition(ctx)
		switch {
		case condErr != nil:
			err = condErr
		case !ok:
			err = errors.ErrConditionNotMet
		}
	}

	if err != nil {
		t.mu.Lock()
		t.state = StateFailed
		t.mu.Unlock()
		return "", err
	}

	t.mu.Lock()
	t.elapsed = time.Since(start)
	t.state = StateCompleted
	t.mu.Unlock()
	return next, nil
}

// Run executes the task's retry protocol: at least one attempt, then up to
// Retries further attempts, waiting WaitTime before each retry. The first
// successful attempt short-circuits the remaining retries and returns its
// branch target. If the final attempt fails, its error is returned unchanged.
//
// A context cancellation during the inter-retry wait aborts the protocol and
// returns the context's error; an execute function that is already running is
// never interrupted.
func (t *Task) Run(ctx context.Context) (string, error) {
	t.mu.Lock()
	t.attempts = 0
	t.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 && t.waitTime > 0 {
			if err := sleep(ctx, t.waitTime); err != nil {
				return "", err
			}
		}

		next, err := t.Attempt(ctx)
		if err == nil {
			return next, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// Skip transitions a not-yet-started task to skipped. It is the branch-skip
// path: the execute function is never invoked. Tasks in any other state are
// left unchanged.
func (t *Task) Skip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateNotStarted {
		t.state = StateSkipped
	}
}

// Reset returns the task to its initial state so the tree can be run again.
func (t *Task) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateNotStarted
	t.elapsed = 0
	t.attempts = 0
}

// sleep blocks for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
