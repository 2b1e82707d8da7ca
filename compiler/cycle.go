package compiler

import (
	"github.com/BaSui01/botflow/blueprint"
)

const (
	white = iota
	grey
	black
)

// HasCycle reports whether the graph formed by nodeIDs and edges contains a
// directed cycle. Branch labels and edges with unknown ends are ignored.
func HasCycle(nodeIDs []string, edges []blueprint.Edge) bool {
	return FindCycle(nodeIDs, edges) != nil
}

// FindCycle returns the node ids of the first cycle found, in traversal order,
// or nil when the graph is acyclic. The DFS walks nodes in the given order and
// uses an explicit stack, so deep graphs cannot overflow the goroutine stack.
func FindCycle(nodeIDs []string, edges []blueprint.Edge) []string {
	adj := adjacency(nodeIDs, edges)
	color := make(map[string]int, len(nodeIDs))

	type frame struct {
		node string
		next int
	}

	for _, start := range nodeIDs {
		if color[start] != white {
			continue
		}

		stack := []frame{{node: start}}
		onStack := map[string]int{start: 0}
		color[start] = grey

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := adj[top.node]
			if top.next >= len(succ) {
				color[top.node] = black
				delete(onStack, top.node)
				stack = stack[:len(stack)-1]
				continue
			}

			next := succ[top.next]
			top.next++

			switch color[next] {
			case grey:
				// back edge: the cycle is the stack suffix starting at next
				from := onStack[next]
				cycle := make([]string, 0, len(stack)-from)
				for _, f := range stack[from:] {
					cycle = append(cycle, f.node)
				}
				return cycle
			case white:
				color[next] = grey
				onStack[next] = len(stack)
				stack = append(stack, frame{node: next})
			}
		}
	}
	return nil
}

// adjacency builds successor lists in edge order, keeping only edges whose
// ends are both in nodeIDs.
func adjacency(nodeIDs []string, edges []blueprint.Edge) map[string][]string {
	known := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = true
	}
	adj := make(map[string][]string, len(nodeIDs))
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}
