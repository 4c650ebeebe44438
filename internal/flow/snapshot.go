package flow

import "fmt"

// NodeType discriminates snapshot nodes.
type NodeType string

const (
	NodeTypeTask  NodeType = "task"
	NodeTypeGroup NodeType = "task-group"
)

// NodeSnapshot is the serializable point-in-time view of a single node.
// Time is in milliseconds. Children is present only for groups.
type NodeSnapshot struct {
	Type     NodeType                `json:"type"`
	State    State                   `json:"state"`
	Time     int64                   `json:"time"`
	Children map[string]NodeSnapshot `json:"children,omitempty"`
}

// Snapshot maps root group ids to their rendered subtrees.
type Snapshot map[string]NodeSnapshot

// Render produces the snapshot of a node and, for groups, of its whole
// subtree. It is a read: rendering never mutates the tree.
//
// A task renders its current state and the elapsed time of its last successful
// attempt. A group renders its children recursively; its time is the sum of
// its children's times and its state is derived:
//
//   - in_progress if any descendant is in_progress
//   - completed if every immediate child is completed (vacuously true for an
//     empty group)
//   - not_started otherwise
//
// Failed and skipped descendants are not distinctly bubbled: a group holding a
// failed child and otherwise not-started siblings reports not_started.
func Render(n Node) NodeSnapshot {
	switch n := n.(type) {
	case *Task:
		return NodeSnapshot{
			Type:  NodeTypeTask,
			State: n.State(),
			Time:  n.Elapsed().Milliseconds(),
		}
	case *Group:
		return renderGroup(n)
	default:
		// Node is sealed; this is unreachable.
		panic(fmt.Sprintf("flow: unknown node type %T", n))
	}
}

func renderGroup(g *Group) NodeSnapshot {
	children := g.Children()
	rendered := make(map[string]NodeSnapshot, len(children))

	var total int64
	anyInProgress := false
	allCompleted := true

	for _, child := range children {
		cs := Render(child)
		rendered[child.ID()] = cs
		total += cs.Time
		if cs.State == StateInProgress {
			anyInProgress = true
		}
		if cs.State != StateCompleted {
			allCompleted = false
		}
	}

	state := StateNotStarted
	switch {
	case anyInProgress:
		state = StateInProgress
	case allCompleted:
		state = StateCompleted
	}

	return NodeSnapshot{
		Type:     NodeTypeGroup,
		State:    state,
		Time:     total,
		Children: rendered,
	}
}
