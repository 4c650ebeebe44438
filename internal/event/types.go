package event

import "time"

// Event type identifiers. Subscribers should use these constants rather than
// string literals so misspelled event names fail at build time.
const (
	TypeTaskStarted    = "task.started"
	TypeTaskCompleted  = "task.completed"
	TypeTaskSkipped    = "task.skipped"
	TypeGroupCompleted = "group.completed"
	TypeRunCompleted   = "run.completed"
	TypeError          = "error"
	TypeInfo           = "info"
)

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.started", "group.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Task Lifecycle Events
// -----------------------------------------------------------------------------

// TaskStartedEvent is emitted before a task's retry protocol begins.
type TaskStartedEvent struct {
	baseEvent
	TaskID  string // Identifier of the task about to run
	GroupID string // Identifier of the group being traversed (empty for RunTask)
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(taskID, groupID string) TaskStartedEvent {
	return TaskStartedEvent{
		baseEvent: newBaseEvent(TypeTaskStarted),
		TaskID:    taskID,
		GroupID:   groupID,
	}
}

// TaskCompletedEvent is emitted after a task's retry protocol succeeds.
// It is not emitted for tasks that fail permanently; the error aborts the run
// and surfaces to the caller instead.
type TaskCompletedEvent struct {
	baseEvent
	TaskID   string        // Identifier of the completed task
	GroupID  string        // Identifier of the group being traversed (empty for RunTask)
	Attempts int           // Number of attempts the task needed, including the first
	Duration time.Duration // Elapsed wall-clock time of the successful attempt
	Next     string        // Branch target returned by the task, if any
}

// NewTaskCompletedEvent creates a TaskCompletedEvent.
func NewTaskCompletedEvent(taskID, groupID string, attempts int, duration time.Duration, next string) TaskCompletedEvent {
	return TaskCompletedEvent{
		baseEvent: newBaseEvent(TypeTaskCompleted),
		TaskID:    taskID,
		GroupID:   groupID,
		Attempts:  attempts,
		Duration:  duration,
		Next:      next,
	}
}

// TaskSkippedEvent is emitted when a pending branch target bypasses a task.
// The task's execute function is never invoked on this path.
type TaskSkippedEvent struct {
	baseEvent
	TaskID   string // Identifier of the skipped task
	GroupID  string // Identifier of the group being traversed
	Expected string // The branch target the traversal is waiting for
}

// NewTaskSkippedEvent creates a TaskSkippedEvent.
func NewTaskSkippedEvent(taskID, groupID, expected string) TaskSkippedEvent {
	return TaskSkippedEvent{
		baseEvent: newBaseEvent(TypeTaskSkipped),
		TaskID:    taskID,
		GroupID:   groupID,
		Expected:  expected,
	}
}

// -----------------------------------------------------------------------------
// Group and Run Lifecycle Events
// -----------------------------------------------------------------------------

// GroupCompletedEvent is emitted after every child of a group has been visited.
type GroupCompletedEvent struct {
	baseEvent
	GroupID string // Identifier of the completed group
	Message string // Human-readable completion message
}

// NewGroupCompletedEvent creates a GroupCompletedEvent.
func NewGroupCompletedEvent(groupID, message string) GroupCompletedEvent {
	return GroupCompletedEvent{
		baseEvent: newBaseEvent(TypeGroupCompleted),
		GroupID:   groupID,
		Message:   message,
	}
}

// RunCompletedEvent is emitted when a full run finishes.
type RunCompletedEvent struct {
	baseEvent
	Success   bool   // Whether every group completed without a task failure
	GroupsRun int    // Number of root groups fully traversed
	Error     string // Final error message when Success is false
}

// NewRunCompletedEvent creates a RunCompletedEvent.
func NewRunCompletedEvent(success bool, groupsRun int, errMsg string) RunCompletedEvent {
	return RunCompletedEvent{
		baseEvent: newBaseEvent(TypeRunCompleted),
		Success:   success,
		GroupsRun: groupsRun,
		Error:     errMsg,
	}
}

// -----------------------------------------------------------------------------
// Diagnostic Events
// -----------------------------------------------------------------------------

// ErrorEvent carries caller diagnostics. The engine never emits it.
type ErrorEvent struct {
	baseEvent
	Message string // Human-readable description
	Err     string // Underlying error text, if any
}

// NewErrorEvent creates an ErrorEvent.
func NewErrorEvent(message, errMsg string) ErrorEvent {
	return ErrorEvent{
		baseEvent: newBaseEvent(TypeError),
		Message:   message,
		Err:       errMsg,
	}
}

// InfoEvent carries caller diagnostics. The engine never emits it.
type InfoEvent struct {
	baseEvent
	Message string // Human-readable description
}

// NewInfoEvent creates an InfoEvent.
func NewInfoEvent(message string) InfoEvent {
	return InfoEvent{
		baseEvent: newBaseEvent(TypeInfo),
		Message:   message,
	}
}
