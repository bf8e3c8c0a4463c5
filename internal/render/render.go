// Package render formats built dependency graphs for humans: an ASCII tree,
// Graphviz DOT, and Mermaid. Rendering is read-only over a deps.Graph.
package render

import (
	"fmt"
	"strings"

	"github.com/groblegark/ktasks/internal/deps"
)

// Tree renders the graph as an ASCII tree, one root per top-level line.
// Roots are tasks with no resolvable prerequisites; children are the tasks
// that depend on them, so the tree reads in execution order.
func Tree(g *deps.Graph) string {
	var b strings.Builder

	roots := []string{}
	for _, id := range g.Order {
		if !hasResolvableDep(g, id) {
			roots = append(roots, id)
		}
	}
	// A fully cyclic graph has no roots; fall back to every node so the
	// output is never empty for a non-empty graph.
	if len(roots) == 0 {
		roots = g.Order
	}

	seen := map[string]bool{}
	for _, id := range roots {
		writeTreeNode(&b, g, id, "", seen)
	}

	if len(g.Cycles) > 0 {
		b.WriteString("\ncycles:\n")
		for _, cycle := range g.Cycles {
			fmt.Fprintf(&b, "  %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
		}
	}
	return b.String()
}

func writeTreeNode(b *strings.Builder, g *deps.Graph, id, prefix string, seen map[string]bool) {
	n := g.Nodes[id]
	if prefix == "" {
		fmt.Fprintf(b, "%s [%s] %s\n", n.ID, n.Status, n.Title)
	}
	if seen[id] {
		return
	}
	seen[id] = true

	for i, dependent := range n.Dependents {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(n.Dependents)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		child := g.Nodes[dependent]
		fmt.Fprintf(b, "%s%s%s [%s] %s\n", prefix, connector, child.ID, child.Status, child.Title)
		writeTreeNode(b, g, dependent, childPrefix, seen)
	}
}

func hasResolvableDep(g *deps.Graph, id string) bool {
	for _, dep := range g.Nodes[id].Dependencies {
		if _, ok := g.Nodes[dep]; ok {
			return true
		}
	}
	return false
}

// DOT renders the graph in Graphviz digraph syntax. Edges point from
// prerequisite to dependent so that layout flows in execution order; cycle
// members are outlined red.
func DOT(g *deps.Graph) string {
	inCycle := map[string]bool{}
	for _, cycle := range g.Cycles {
		for _, id := range cycle {
			inCycle[id] = true
		}
	}

	var b strings.Builder
	b.WriteString("digraph tasks {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n")

	for _, id := range g.Order {
		n := g.Nodes[id]
		attrs := fmt.Sprintf("label=%q", n.Title+"\\n("+string(n.Status)+")")
		if inCycle[id] {
			attrs += ", color=red"
		}
		fmt.Fprintf(&b, "  %q [%s];\n", id, attrs)
	}
	for _, id := range g.Order {
		for _, dep := range g.Nodes[id].Dependencies {
			if _, ok := g.Nodes[dep]; !ok {
				continue
			}
			fmt.Fprintf(&b, "  %q -> %q;\n", dep, id)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Mermaid renders the graph as a Mermaid flowchart (graph TD). Cycle members
// get a "cycle" class definition.
func Mermaid(g *deps.Graph) string {
	inCycle := map[string]bool{}
	for _, cycle := range g.Cycles {
		for _, id := range cycle {
			inCycle[id] = true
		}
	}

	var b strings.Builder
	b.WriteString("graph TD\n")
	for _, id := range g.Order {
		n := g.Nodes[id]
		fmt.Fprintf(&b, "  %s[%q]\n", mermaidID(id), n.Title)
	}
	for _, id := range g.Order {
		for _, dep := range g.Nodes[id].Dependencies {
			if _, ok := g.Nodes[dep]; !ok {
				continue
			}
			fmt.Fprintf(&b, "  %s --> %s\n", mermaidID(dep), mermaidID(id))
		}
	}
	if len(inCycle) > 0 {
		b.WriteString("  classDef cycle stroke:#f00,stroke-width:2px\n")
		members := []string{}
		for _, id := range g.Order {
			if inCycle[id] {
				members = append(members, mermaidID(id))
			}
		}
		fmt.Fprintf(&b, "  class %s cycle\n", strings.Join(members, ","))
	}
	return b.String()
}

// mermaidID strips characters Mermaid treats as syntax from node ids.
func mermaidID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
