package compiler

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/BaSui01/botflow/blueprint"
)

func TestTopologicalOrder(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges []blueprint.Edge
		want  []string
	}{
		{"no edges keeps input order", []string{"c", "a", "b"}, nil, []string{"c", "a", "b"}},
		{"reversed chain", []string{"c", "b", "a"}, edges("a", "b", "b", "c"), []string{"a", "b", "c"}},
		{"fifo by edge order", []string{"root", "x", "y"}, edges("root", "y", "root", "x"), []string{"root", "y", "x"}},
		{"cycle appended in input order", []string{"s", "a", "b"}, edges("a", "b", "b", "a"), []string{"s", "a", "b"}},
		{"cycle downstream of root", []string{"r", "a", "b"}, edges("r", "a", "a", "b", "b", "a"), []string{"r", "a", "b"}},
		{"duplicate ids collapsed", []string{"a", "a", "b"}, edges("a", "b"), []string{"a", "b"}},
		{"unknown ends ignored", []string{"a", "b"}, edges("ghost", "a", "a", "b"), []string{"a", "b"}},
		{"duplicate edges", []string{"a", "b"}, edges("a", "b", "a", "b"), []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopologicalOrder(tt.nodes, tt.edges))
		})
	}
}

func TestLayout_Positions(t *testing.T) {
	pos := Layout([]string{"b", "a"}, edges("a", "b"), DefaultLayoutConfig())

	assert.Equal(t, blueprint.Position{X: 250, Y: 300}, pos["a"])
	assert.Equal(t, blueprint.Position{X: 470, Y: 300}, pos["b"])
}

func TestLayout_ZeroConfigUsesDefaults(t *testing.T) {
	assert.Equal(t,
		Layout([]string{"a", "b"}, nil, DefaultLayoutConfig()),
		Layout([]string{"a", "b"}, nil, LayoutConfig{}))
}

func TestLayout_CustomConfig(t *testing.T) {
	pos := Layout([]string{"a", "b", "c"}, nil, LayoutConfig{StartX: 0, SpacingX: 100, StartY: 50})
	assert.Equal(t, blueprint.Position{X: 200, Y: 50}, pos["c"])
}

func TestProperty_KahnOrderIsTopological(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 40).Draw(rt, "n")
		ids := rapid.Permutation(nodeIDs(n)).Draw(rt, "ids")
		es := forwardEdges(rt, n)

		order := TopologicalOrder(ids, es)
		if len(order) != n {
			rt.Fatalf("expected %d nodes, got %d", n, len(order))
		}
		index := make(map[string]int, n)
		for i, id := range order {
			index[id] = i
		}
		for _, e := range es {
			if index[e.Source] >= index[e.Target] {
				rt.Fatalf("%s placed after successor %s in %v", e.Source, e.Target, order)
			}
		}
	})
}

func TestProperty_LayoutPlacesEveryNode(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every node gets a distinct x on the same lane", prop.ForAll(
		func(n int, links []int) bool {
			ids := nodeIDs(n)
			var es []blueprint.Edge
			for i := 0; i+1 < len(links); i += 2 {
				// arbitrary edges, cycles included
				es = append(es, blueprint.Edge{Source: ids[links[i]%n], Target: ids[links[i+1]%n]})
			}

			pos := Layout(ids, es, DefaultLayoutConfig())
			if len(pos) != n {
				return false
			}
			seen := make(map[float64]bool, n)
			for _, p := range pos {
				if p.Y != 300 || seen[p.X] {
					return false
				}
				seen[p.X] = true
			}
			return true
		},
		gen.IntRange(1, 25),
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
