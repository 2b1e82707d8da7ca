package compiler

import (
	"github.com/BaSui01/botflow/blueprint"
)

// LayoutConfig positions nodes on a single horizontal lane.
type LayoutConfig struct {
	StartX   float64 `json:"start_x" yaml:"start_x"`
	SpacingX float64 `json:"spacing_x" yaml:"spacing_x"`
	StartY   float64 `json:"start_y" yaml:"start_y"`
}

// DefaultLayoutConfig returns the canvas defaults.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		StartX:   250,
		SpacingX: 220,
		StartY:   300,
	}
}

// TopologicalOrder sorts nodeIDs with Kahn's algorithm. The queue is seeded
// with zero in-degree nodes in input order and successors are visited in edge
// order. Nodes never reached (cycles) are appended in input order, so every
// node appears exactly once. Duplicate ids are collapsed to their first entry.
func TopologicalOrder(nodeIDs []string, edges []blueprint.Edge) []string {
	ids := uniqueIDs(nodeIDs)
	adj := adjacency(ids, edges)

	inDegree := make(map[string]int, len(ids))
	for _, succ := range adj {
		for _, to := range succ {
			inDegree[to]++
		}
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(ids))
	placed := make(map[string]bool, len(ids))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		placed[current] = true

		for _, next := range adj[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	for _, id := range ids {
		if !placed[id] {
			order = append(order, id)
		}
	}
	return order
}

// Layout assigns every node a position along its topological order. A zero
// config uses DefaultLayoutConfig.
func Layout(nodeIDs []string, edges []blueprint.Edge, cfg LayoutConfig) map[string]blueprint.Position {
	if cfg == (LayoutConfig{}) {
		cfg = DefaultLayoutConfig()
	}
	order := TopologicalOrder(nodeIDs, edges)
	positions := make(map[string]blueprint.Position, len(order))
	for i, id := range order {
		positions[id] = blueprint.Position{
			X: cfg.StartX + float64(i)*cfg.SpacingX,
			Y: cfg.StartY,
		}
	}
	return positions
}

func uniqueIDs(nodeIDs []string) []string {
	seen := make(map[string]bool, len(nodeIDs))
	out := make([]string, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
