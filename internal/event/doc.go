// Package event provides a pub-sub event bus for lifecycle notifications.
//
// This package enables loose coupling between the orchestrator, the TUI, and
// caller-supplied listeners: the orchestrator publishes events at defined points
// of a run without knowing who will receive them, and listeners subscribe
// without knowing who will produce them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe registration
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Task Lifecycle:
//   - [TaskStartedEvent]: Emitted before a task's retry protocol begins
//   - [TaskCompletedEvent]: Emitted after a task completes successfully
//   - [TaskSkippedEvent]: Emitted when a task is bypassed by a pending branch target
//
// Group and Run Lifecycle:
//   - [GroupCompletedEvent]: Emitted after every child of a group has been visited
//   - [RunCompletedEvent]: Emitted when a full run finishes, successfully or not
//
// Diagnostics:
//   - [ErrorEvent], [InfoEvent]: Never emitted by the engine itself; reserved
//     for callers that want to route their own diagnostics through the bus
//
// # Dispatch Semantics
//
// Handlers are invoked synchronously, in registration order, on the publishing
// goroutine. Publishing an event with no listeners is a no-op. Handler panics
// are NOT recovered: a panicking listener propagates to the emitter.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.TypeTaskStarted, func(e event.Event) {
//	    started := e.(event.TaskStartedEvent)
//	    log.Printf("task %s started", started.TaskID)
//	})
//
//	bus.Publish(event.NewTaskStartedEvent("build", "ci"))
//
//	id := bus.Subscribe(event.TypeGroupCompleted, handler)
//	bus.Unsubscribe(id)
package event
