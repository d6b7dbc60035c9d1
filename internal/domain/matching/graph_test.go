package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawGraph lets tests hand the validator adjacency a well-formed adapter
// would never produce.
type rawGraph struct {
	*testGraph
	nbrs  map[int][]int
	count int
	order BondOrder
}

func (g *rawGraph) AtomCount() int {
	if g.count != 0 {
		return g.count
	}
	return g.testGraph.AtomCount()
}

func (g *rawGraph) NeighborsOf(a int) []int {
	if n, ok := g.nbrs[a]; ok {
		return n
	}
	return g.testGraph.NeighborsOf(a)
}

func (g *rawGraph) IsBonded(a, b int) bool {
	if g.nbrs != nil {
		return true
	}
	return g.testGraph.IsBonded(a, b)
}

func (g *rawGraph) BondOrder(a, b int) BondOrder {
	if g.order != 0 {
		return g.order
	}
	return g.testGraph.BondOrder(a, b)
}

func ethanol() *testGraph {
	return newTestGraph([]string{"C", "C", "O"}, single(0, 1), single(1, 2))
}

func TestPrepare_ValidGraph(t *testing.T) {
	reg := NewLabelRegistry()
	p, err := prepare("query", ethanol(), reg)
	require.NoError(t, err)

	assert.Equal(t, 3, p.n)
	assert.Equal(t, []int{0, 2}, p.adj[1])
	assert.Equal(t, BondSingle, p.orders[1][1])
	assert.Equal(t, p.labels[0], p.labels[1])
	assert.NotEqual(t, p.labels[0], p.labels[2])

	j, ok := p.edgeIndex(2, 1)
	require.True(t, ok)
	assert.Equal(t, 0, j)
	_, ok = p.edgeIndex(0, 2)
	assert.False(t, ok)
	assert.False(t, p.stereogenic())
}

func TestPrepare_InvalidGraphs(t *testing.T) {
	cases := []struct {
		name string
		g    Graph
	}{
		{"nil graph", nil},
		{"negative atom count", &rawGraph{testGraph: ethanol(), count: -1}},
		{"neighbor out of range", &rawGraph{testGraph: ethanol(), nbrs: map[int][]int{0: {1, 7}}}},
		{"negative neighbor", &rawGraph{testGraph: ethanol(), nbrs: map[int][]int{0: {-1}}}},
		{"self loop", &rawGraph{testGraph: ethanol(), nbrs: map[int][]int{0: {0, 1}}}},
		{"duplicate neighbor", &rawGraph{testGraph: ethanol(), nbrs: map[int][]int{0: {1, 1}}}},
		{"asymmetric adjacency", &rawGraph{testGraph: ethanol(), nbrs: map[int][]int{0: {1, 2}}}},
		{"unknown bond order", &rawGraph{testGraph: ethanol(), order: BondOrder(5)}},
		{"empty label", newTestGraph([]string{"C", ""}, single(0, 1))},
		{"bond descriptor on atom", ethanol().withStereo(0, StereoZ)},
		{"atom descriptor on bond", ethanol().withBondStereo(0, 1, StereoR)},
		{"undefined descriptor", ethanol().withStereo(1, StereoDescriptor(77))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateGraph(tc.g, NewLabelRegistry())
			require.Error(t, err)
			assert.True(t, IsInvalidGraph(err), err.Error())
			assert.False(t, IsConfigurationError(err))
		})
	}
}

func TestPrepare_NeighborsNotBonded(t *testing.T) {
	g := &notBondedGraph{testGraph: ethanol()}
	err := ValidateGraph(g, NewLabelRegistry())
	require.Error(t, err)
	assert.True(t, IsInvalidGraph(err))
}

type notBondedGraph struct{ *testGraph }

func (g *notBondedGraph) IsBonded(a, b int) bool { return false }

//Personal.AI order the ending
