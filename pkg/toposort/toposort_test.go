package toposort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToposortLinear(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	order, ok := g.Toposort()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestToposortDeterministicTies(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddNode("z")
	g.AddNode("m")
	g.AddNode("a")

	order, ok := g.Toposort()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "m", "z"}, order)
}

func TestToposortDetectsCycle(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")

	_, ok := g.Toposort()
	assert.False(t, ok)
}

func TestFindCycle(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddEdge("entry", "a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	cycle := g.FindCycle("entry")
	assert.Equal(t, []string{"a", "b"}, cycle)
}

func TestFindCycleNone(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddEdge("a", "b")

	assert.Nil(t, g.FindCycle("a"))
	assert.Nil(t, g.FindCycle("missing"))
}

func TestAddNodeIdempotent(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	require.True(t, g.AddNode("x"))
	require.False(t, g.AddNode("x"))
}
