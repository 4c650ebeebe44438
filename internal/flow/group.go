package flow

import (
	"sync"

	"github.com/thedjpetersen/flow-like-water/internal/errors"
)

// Group is a named, ordered container of child nodes, each either a *Task or
// another *Group. Insertion order is execution order. Groups nest to arbitrary
// depth; the structure must stay acyclic (a group must never directly or
// transitively contain itself) and the engine does not enforce this.
type Group struct {
	id string

	mu       sync.RWMutex
	order    []string
	children map[string]Node
}

// NewGroup creates an empty group with the given identifier.
func NewGroup(id string) (*Group, error) {
	if id == "" {
		return nil, errors.NewValidationError("group id cannot be empty").WithField("ID")
	}
	return &Group{
		id:       id,
		children: make(map[string]Node),
	}, nil
}

// ID returns the group's identifier.
func (g *Group) ID() string {
	return g.id
}

// AddChild appends a node to the group. Re-adding an existing id replaces that
// child in place, keeping its position in the execution order. Nil nodes are
// ignored.
func (g *Group) AddChild(n Node) {
	if n == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.children[n.ID()]; !exists {
		g.order = append(g.order, n.ID())
	}
	g.children[n.ID()] = n
}

// RemoveChild removes the child with the given id.
// Returns true if the child was found and removed.
func (g *Group) RemoveChild(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.children[id]; !exists {
		return false
	}

	delete(g.children, id)
	for i, childID := range g.order {
		if childID == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return true
}

// Child returns the child with the given id.
func (g *Group) Child(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.children[id]
	return n, ok
}

// Children returns the group's children in execution order.
func (g *Group) Children() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.children[id])
	}
	return nodes
}

// Len returns the number of children.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.children)
}
