// Package orchestrator walks workflow trees and drives task execution.
//
// An [Orchestrator] owns an ordered collection of root-level task groups and
// embeds an [event.Bus], so callers subscribe to lifecycle events directly on
// the orchestrator. A run visits each root group in registration order and
// walks it depth-first; each task runs its full retry protocol before the
// traversal moves on. There is no parallelism.
//
// # Conditional Branching
//
// A task's execute function may return the identifier of another node. The
// traversal then skips every subsequent non-matching task (marking it skipped
// without invoking it) until a task with that identifier is reached. The
// pending target is a single value shared across the whole run, spanning group
// boundaries: at most one branch expectation is outstanding at any time, and
// it is cleared by the first executed task that requests no further branch.
// The pending target lives in a call-scoped traversal context created per Run
// invocation, never on the Orchestrator itself.
//
// # Failure Semantics
//
// The orchestrator performs no recovery. A task that exhausts its retries
// aborts the run immediately; later siblings and groups are left untouched,
// and the task's final error surfaces to the Run caller unchanged.
package orchestrator
