// Package deps builds dependency graphs over task snapshots and answers
// structural questions about them: cycle detection, edge-set validation,
// critical-path computation, and ready/blocked projections.
//
// Every function takes a full task snapshot and returns freshly allocated
// results; the package holds no state between calls and is safe for
// concurrent use as long as callers do not mutate a snapshot mid-call.
// Dependency edges point from dependent to prerequisite, and ordered results
// (the critical path in particular) are returned prerequisite-first.
package deps

import (
	"github.com/groblegark/ktasks/internal/model"
)

// DefaultTaskMinutes is the duration weight used for tasks without an
// estimate when computing the critical path.
const DefaultTaskMinutes = 60

// Node is the graph's view of one task at build time.
type Node struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Status model.Status `json:"status"`

	// Dependencies are the task's declared prerequisite ids, in declared
	// order. Dangling ids (no matching task in the snapshot) are kept, not
	// dropped; they simply never resolve to a node.
	Dependencies []string `json:"dependencies,omitempty"`

	// Dependents is the transpose of Dependencies restricted to tasks
	// present in the same snapshot, in snapshot order.
	Dependents []string `json:"dependents,omitempty"`

	// IsReady is true when the task is not completed and every declared
	// prerequisite resolves to a completed task.
	IsReady bool `json:"is_ready"`

	// BlockedBy is the subset of Dependencies that are not satisfied: ids
	// whose task is not completed, or that do not resolve at all.
	BlockedBy []string `json:"blocked_by,omitempty"`
}

// Graph is a point-in-time dependency graph over one task snapshot.
type Graph struct {
	Nodes  map[string]*Node `json:"nodes"`
	Cycles [][]string       `json:"cycles"`

	// Order preserves the snapshot's task order so that traversals over the
	// node map stay deterministic.
	Order []string `json:"order"`
}

// Build constructs the dependency graph for a task snapshot, including cycle
// detection. One node is created per input task; duplicate ids are a caller
// error. The result is newly allocated and shares no structure with previous
// builds. Runs in O(V + E).
func Build(tasks []*model.Task) *Graph {
	g := build(tasks)
	g.Cycles = detectCycles(g)
	return g
}

// build assembles nodes, reverse edges, and readiness without running cycle
// detection. Used directly by the ready/blocked projections, which must stay
// cheap.
func build(tasks []*model.Task) *Graph {
	g := &Graph{
		Nodes:  make(map[string]*Node, len(tasks)),
		Cycles: [][]string{},
		Order:  make([]string, 0, len(tasks)),
	}

	for _, t := range tasks {
		deps := make([]string, len(t.Dependencies))
		copy(deps, t.Dependencies)
		g.Nodes[t.ID] = &Node{
			ID:           t.ID,
			Title:        t.Title,
			Status:       t.Status,
			Dependencies: deps,
		}
		g.Order = append(g.Order, t.ID)
	}

	// Reverse edges: single pass over all declared dependency lists.
	for _, id := range g.Order {
		for _, dep := range g.Nodes[id].Dependencies {
			if target, ok := g.Nodes[dep]; ok {
				target.Dependents = append(target.Dependents, id)
			}
		}
	}

	// Readiness against the snapshot's current statuses. A dangling id is
	// treated as unsatisfied rather than an error: historical data may
	// reference deleted tasks, and the graph is a best-effort view.
	for _, id := range g.Order {
		n := g.Nodes[id]
		for _, dep := range n.Dependencies {
			target, ok := g.Nodes[dep]
			if !ok || target.Status != model.StatusCompleted {
				n.BlockedBy = append(n.BlockedBy, dep)
			}
		}
		n.IsReady = n.Status != model.StatusCompleted && len(n.BlockedBy) == 0
	}

	return g
}
