package deps

import (
	"github.com/groblegark/ktasks/internal/model"
)

// CriticalPath returns the ids of the maximum-duration chain of prerequisite
// relationships, ordered prerequisite-first. Tasks without an estimate weigh
// DefaultTaskMinutes. Cycle members are excluded and the path is computed
// over the acyclic remainder; an empty snapshot or one with no resolvable
// dependency edges yields an empty path.
func CriticalPath(tasks []*model.Task) []string {
	g := Build(tasks)
	inCycle := cycleMembers(g.Cycles)

	durations := make(map[string]int, len(tasks))
	for _, t := range tasks {
		durations[t.ID] = t.Duration(DefaultTaskMinutes)
	}

	// Longest path is only meaningful when at least one edge resolves within
	// the acyclic remainder.
	hasEdge := false
	for _, id := range g.Order {
		if inCycle[id] {
			continue
		}
		for _, dep := range g.Nodes[id].Dependencies {
			if _, ok := g.Nodes[dep]; ok && !inCycle[dep] {
				hasEdge = true
			}
		}
	}
	if !hasEdge {
		return []string{}
	}

	// Kahn's algorithm over the acyclic remainder. Indegree counts only
	// edges whose prerequisite resolves to a non-cycle node.
	indegree := make(map[string]int, len(g.Order))
	for _, id := range g.Order {
		if inCycle[id] {
			continue
		}
		count := 0
		for _, dep := range g.Nodes[id].Dependencies {
			if _, ok := g.Nodes[dep]; ok && !inCycle[dep] {
				count++
			}
		}
		indegree[id] = count
	}

	queue := make([]string, 0, len(indegree))
	for _, id := range g.Order {
		if !inCycle[id] && indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	// best[id] is the maximum cumulative duration of any path ending at id;
	// pred[id] is the prerequisite that achieves it. Ties keep the first
	// dependency in declared order.
	best := make(map[string]int, len(indegree))
	pred := make(map[string]string, len(indegree))

	var topo []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		topo = append(topo, id)

		score := durations[id]
		for _, dep := range g.Nodes[id].Dependencies {
			if _, ok := g.Nodes[dep]; !ok || inCycle[dep] {
				continue
			}
			if candidate := durations[id] + best[dep]; candidate > score {
				score = candidate
				pred[id] = dep
			}
		}
		best[id] = score

		for _, dependent := range g.Nodes[id].Dependents {
			if inCycle[dependent] {
				continue
			}
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	// The globally best terminal; earlier topological position wins ties.
	terminal := ""
	terminalScore := -1
	for _, id := range topo {
		if best[id] > terminalScore {
			terminal = id
			terminalScore = best[id]
		}
	}
	if terminal == "" {
		return []string{}
	}

	// Walk predecessor pointers back to the path's start, then reverse into
	// prerequisite-first order.
	var path []string
	for id := terminal; ; {
		path = append(path, id)
		next, ok := pred[id]
		if !ok {
			break
		}
		id = next
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathMinutes sums the duration weights of the given path over the snapshot.
func PathMinutes(tasks []*model.Task, path []string) int {
	durations := make(map[string]int, len(tasks))
	for _, t := range tasks {
		durations[t.ID] = t.Duration(DefaultTaskMinutes)
	}
	total := 0
	for _, id := range path {
		total += durations[id]
	}
	return total
}
