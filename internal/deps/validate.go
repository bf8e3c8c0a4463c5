package deps

import (
	"fmt"
	"strings"

	"github.com/groblegark/ktasks/internal/model"
)

// Policy carries caller-supplied thresholds for advisory warnings. The engine
// itself enforces no limits; callers decide whether a warning rejects the
// mutation.
type Policy struct {
	// WarnDependencyCount triggers a warning when a task declares more than
	// this many dependencies. Zero disables the check.
	WarnDependencyCount int
}

// Result is the outcome of validating a proposed dependency edge set.
// Warnings are advisory and never affect Valid.
type Result struct {
	Valid    bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateDependencies checks the edge set taskID -> proposed as if it were
// already applied, without mutating tasks. Errors are appended in order of
// structural severity: self-dependency, unknown id, duplicate, cycle.
func ValidateDependencies(taskID string, proposed []string, tasks []*model.Task, policy Policy) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}

	byID := make(map[string]*model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	for _, dep := range proposed {
		if dep == taskID {
			res.Errors = append(res.Errors, fmt.Sprintf("task %q cannot depend on itself", taskID))
			break
		}
	}

	for _, dep := range proposed {
		if dep == taskID {
			continue
		}
		if _, ok := byID[dep]; !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("dependency %q does not exist", dep))
		}
	}

	seen := make(map[string]bool, len(proposed))
	for _, dep := range proposed {
		if seen[dep] {
			res.Errors = append(res.Errors, fmt.Sprintf("duplicate dependency %q", dep))
			continue
		}
		seen[dep] = true
	}

	// Simulate the edge set on a copy of the snapshot and look for cycles
	// passing through the task.
	hypothetical := substituteEdges(taskID, proposed, tasks)
	g := Build(hypothetical)
	for _, cycle := range g.Cycles {
		if containsID(cycle, taskID) {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"dependencies would create a cycle: %s", strings.Join(cycle, " -> ")))
			break
		}
	}

	// Advisory: a proposed dependency already reachable through another
	// proposed dependency is redundant.
	for _, dep := range proposed {
		if dep == taskID || !containsNode(g, dep) {
			continue
		}
		for _, other := range proposed {
			if other == dep || other == taskID || !containsNode(g, other) {
				continue
			}
			if reachable(g, other, dep) {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"dependency %q is already reachable through %q", dep, other))
				break
			}
		}
	}

	if policy.WarnDependencyCount > 0 && len(proposed) > policy.WarnDependencyCount {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d dependencies exceeds the advisory threshold of %d",
			len(proposed), policy.WarnDependencyCount))
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// substituteEdges returns a shallow copy of the snapshot with taskID's
// dependency list replaced by proposed. When taskID is not in the snapshot a
// synthetic task carrying the proposed edges is appended, so the simulation
// still degrades gracefully.
func substituteEdges(taskID string, proposed []string, tasks []*model.Task) []*model.Task {
	out := make([]*model.Task, 0, len(tasks)+1)
	found := false
	for _, t := range tasks {
		if t.ID == taskID {
			clone := *t
			clone.Dependencies = proposed
			out = append(out, &clone)
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		out = append(out, &model.Task{ID: taskID, Dependencies: proposed})
	}
	return out
}

// reachable reports whether to can be reached from from by following
// dependency edges.
func reachable(g *Graph, from, to string) bool {
	visited := make(map[string]bool, len(g.Nodes))
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		node, ok := g.Nodes[id]
		if !ok {
			continue
		}
		for _, dep := range node.Dependencies {
			if dep == to {
				return true
			}
			if !visited[dep] {
				queue = append(queue, dep)
			}
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsNode(g *Graph, id string) bool {
	_, ok := g.Nodes[id]
	return ok
}
