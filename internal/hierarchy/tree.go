// Package hierarchy holds self-referencing chart nodes in an arena keyed by ID.
package hierarchy

import (
	"cmp"
	"iter"
	"slices"

	"github.com/google/uuid"
)

// Node is anything with an ID, an optional parent ID and a sibling sort key.
type Node interface {
	NodeID() uuid.UUID
	ParentNodeID() *uuid.UUID
	SortKey() string
}

// Tree is an immutable arena of nodes. Nodes whose parent is missing from the
// arena are treated as roots.
type Tree[T Node] struct {
	nodes    map[uuid.UUID]T
	children map[uuid.UUID][]uuid.UUID
	roots    []uuid.UUID
}

// New builds a tree from a flat list of nodes.
func New[T Node](items []T) *Tree[T] {
	t := &Tree[T]{
		nodes:    make(map[uuid.UUID]T, len(items)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, n := range items {
		t.nodes[n.NodeID()] = n
	}
	for _, n := range items {
		p := n.ParentNodeID()
		if p != nil {
			if _, ok := t.nodes[*p]; ok {
				t.children[*p] = append(t.children[*p], n.NodeID())
				continue
			}
		}
		t.roots = append(t.roots, n.NodeID())
	}

	bySortKey := func(a, b uuid.UUID) int {
		return cmp.Compare(t.nodes[a].SortKey(), t.nodes[b].SortKey())
	}
	slices.SortFunc(t.roots, bySortKey)
	for id := range t.children {
		slices.SortFunc(t.children[id], bySortKey)
	}
	return t
}

// Len returns the number of nodes.
func (t *Tree[T]) Len() int { return len(t.nodes) }

// Get returns the node with the given ID.
func (t *Tree[T]) Get(id uuid.UUID) (T, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Roots returns the root nodes ordered by sort key.
func (t *Tree[T]) Roots() []T {
	out := make([]T, len(t.roots))
	for i, id := range t.roots {
		out[i] = t.nodes[id]
	}
	return out
}

// Children returns the direct children of id ordered by sort key.
func (t *Tree[T]) Children(id uuid.UUID) []T {
	ids := t.children[id]
	out := make([]T, len(ids))
	for i, c := range ids {
		out[i] = t.nodes[c]
	}
	return out
}

// HasChildren reports whether id has at least one child.
func (t *Tree[T]) HasChildren(id uuid.UUID) bool {
	return len(t.children[id]) > 0
}

// Descendants yields every node below id, depth first, siblings in sort-key order.
// The node itself is not yielded. Nodes are visited lazily, one stack frame at a time.
func (t *Tree[T]) Descendants(id uuid.UUID) iter.Seq[T] {
	return func(yield func(T) bool) {
		stack := slices.Clone(t.children[id])
		slices.Reverse(stack)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(t.nodes[cur]) {
				return
			}
			kids := t.children[cur]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		}
	}
}

// Level returns the depth of id: 0 for a root, parent level + 1 otherwise.
func (t *Tree[T]) Level(id uuid.UUID) int {
	level := 0
	seen := map[uuid.UUID]bool{id: true}
	for cur, ok := t.nodes[id]; ok; {
		p := cur.ParentNodeID()
		if p == nil || seen[*p] {
			break
		}
		parent, found := t.nodes[*p]
		if !found {
			break
		}
		seen[*p] = true
		level++
		cur = parent
	}
	return level
}

// WouldCycle reports whether making newParent the parent of id would create a cycle,
// which is the case when newParent is id itself or one of its descendants.
func (t *Tree[T]) WouldCycle(id, newParent uuid.UUID) bool {
	if id == newParent {
		return true
	}
	for n := range t.Descendants(id) {
		if n.NodeID() == newParent {
			return true
		}
	}
	return false
}

// SubtreeLevels returns the level of id and of every node below it when id
// sits at level base. Used to rewrite stored levels after a reparent.
func (t *Tree[T]) SubtreeLevels(id uuid.UUID, base int) map[uuid.UUID]int {
	levels := map[uuid.UUID]int{id: base}
	for n := range t.Descendants(id) {
		p := n.ParentNodeID()
		levels[n.NodeID()] = levels[*p] + 1
	}
	return levels
}
