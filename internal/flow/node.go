package flow

// Node is a member of a workflow tree: either a *Task or a *Group.
// The interface is sealed; no implementations exist outside this package.
type Node interface {
	// ID returns the node's caller-assigned identifier.
	// IDs are unique among siblings within one group, not globally.
	ID() string

	node()
}

func (t *Task) node()  {}
func (g *Group) node() {}

// State represents the run state of a task, or the derived state of a group.
type State string

const (
	// StateNotStarted indicates the node has not been visited yet.
	StateNotStarted State = "not_started"

	// StateInProgress indicates an attempt is currently executing.
	StateInProgress State = "in_progress"

	// StateCompleted indicates an attempt succeeded.
	StateCompleted State = "completed"

	// StateFailed indicates the last attempt failed.
	StateFailed State = "failed"

	// StateSkipped indicates a pending branch target bypassed the node.
	StateSkipped State = "skipped"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if this state represents a final state for a run.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateSkipped
}
