package deps

// Colors for the depth-first cycle search.
const (
	colorWhite = iota // unvisited
	colorGray         // on the current DFS stack
	colorBlack        // fully explored
)

// detectCycles enumerates every cycle reachable via dependency edges.
//
// Depth-first traversal with three-coloring: hitting a gray node means the
// segment of the DFS stack from that node to the top forms a cycle. Nodes are
// visited in snapshot order, so repeated calls over the same graph report the
// same cycles in the same order. A task listing its own id is a 1-node cycle.
// Overlapping cycles are each reported independently.
func detectCycles(g *Graph) [][]string {
	color := make(map[string]int, len(g.Order))
	stack := make([]string, 0, len(g.Order))
	cycles := [][]string{}

	var visit func(id string)
	visit = func(id string) {
		color[id] = colorGray
		stack = append(stack, id)

		for _, dep := range g.Nodes[id].Dependencies {
			if _, ok := g.Nodes[dep]; !ok {
				// Dangling reference: nothing to walk into.
				continue
			}
			switch color[dep] {
			case colorWhite:
				visit(dep)
			case colorGray:
				// The stack from dep to the top is one cycle, ordered by
				// discovery.
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == dep {
						cycle := make([]string, len(stack)-i)
						copy(cycle, stack[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = colorBlack
	}

	for _, id := range g.Order {
		if color[id] == colorWhite {
			visit(id)
		}
	}

	return cycles
}

// cycleMembers returns the set of ids participating in any cycle.
func cycleMembers(cycles [][]string) map[string]bool {
	members := make(map[string]bool)
	for _, cycle := range cycles {
		for _, id := range cycle {
			members[id] = true
		}
	}
	return members
}
