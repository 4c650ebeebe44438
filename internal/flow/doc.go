// Package flow defines the task-tree data model for the orchestration engine.
//
// A workflow is a tree of [Node] values: [Task] leaves (atomic units of work
// with retry and condition-gated completion) composed into [Group] containers
// (ordered, possibly nested collections executed as a unit). Node is a sealed
// sum type over exactly {*Task, *Group}; traversal and serialization use
// exhaustive type switches.
//
// # Main Types
//
//   - [Task]: unit of work with an execute function, an optional condition
//     check, retry/backoff configuration, and mutable run state
//   - [Group]: named, insertion-ordered container of Tasks and Groups
//   - [State]: the task/group state enum
//   - [NodeSnapshot], [Snapshot]: the serializable point-in-time view of a tree
//
// # Execution Model
//
// Execution is strictly sequential: tasks never run concurrently, and ordering
// is exactly insertion order within each group. Task and Group state is guarded
// by mutexes only so that snapshots and UI observers may read a tree while a
// run is in progress on another goroutine; the engine itself never executes two
// nodes at once.
package flow
