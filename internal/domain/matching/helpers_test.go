package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBond struct {
	a, b   int
	order  BondOrder
	stereo StereoDescriptor
}

func single(a, b int) testBond { return testBond{a: a, b: b, order: BondSingle} }

func bond(a, b int, order BondOrder) testBond { return testBond{a: a, b: b, order: order} }

// testGraph is a minimal Graph used across the package tests.
type testGraph struct {
	labels []string
	stereo []StereoDescriptor
	nbrs   [][]int
	bonds  map[[2]int]testBond
}

func key(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func newTestGraph(labels []string, bonds ...testBond) *testGraph {
	g := &testGraph{
		labels: labels,
		stereo: make([]StereoDescriptor, len(labels)),
		nbrs:   make([][]int, len(labels)),
		bonds:  make(map[[2]int]testBond),
	}
	for _, b := range bonds {
		g.nbrs[b.a] = append(g.nbrs[b.a], b.b)
		g.nbrs[b.b] = append(g.nbrs[b.b], b.a)
		g.bonds[key(b.a, b.b)] = b
	}
	return g
}

func (g *testGraph) withStereo(atom int, d StereoDescriptor) *testGraph {
	g.stereo[atom] = d
	return g
}

func (g *testGraph) withBondStereo(a, b int, d StereoDescriptor) *testGraph {
	k := key(a, b)
	bd := g.bonds[k]
	bd.stereo = d
	g.bonds[k] = bd
	return g
}

func (g *testGraph) AtomCount() int                 { return len(g.labels) }
func (g *testGraph) NeighborsOf(a int) []int        { return g.nbrs[a] }
func (g *testGraph) LabelOf(a int) string           { return g.labels[a] }
func (g *testGraph) StereoOf(a int) StereoDescriptor { return g.stereo[a] }

func (g *testGraph) IsBonded(a, b int) bool {
	_, ok := g.bonds[key(a, b)]
	return ok
}

func (g *testGraph) BondOrder(a, b int) BondOrder {
	return g.bonds[key(a, b)].order
}

func (g *testGraph) BondStereoOf(a, b int) StereoDescriptor {
	return g.bonds[key(a, b)].stereo
}

// permute returns a copy of g with atom i renumbered to perm[i].
func (g *testGraph) permute(perm []int) *testGraph {
	n := len(g.labels)
	labels := make([]string, n)
	for i, l := range g.labels {
		labels[perm[i]] = l
	}
	var bonds []testBond
	for _, b := range g.bonds {
		bonds = append(bonds, testBond{a: perm[b.a], b: perm[b.b], order: b.order, stereo: b.stereo})
	}
	out := newTestGraph(labels, bonds...)
	for i, s := range g.stereo {
		out.stereo[perm[i]] = s
	}
	return out
}

func benzene() *testGraph {
	return newTestGraph(
		[]string{"C", "C", "C", "C", "C", "C"},
		bond(0, 1, BondAromatic), bond(1, 2, BondAromatic), bond(2, 3, BondAromatic),
		bond(3, 4, BondAromatic), bond(4, 5, BondAromatic), bond(5, 0, BondAromatic),
	)
}

// naphthalene: two fused aromatic rings sharing atoms 0 and 5.
func naphthalene() *testGraph {
	return newTestGraph(
		[]string{"C", "C", "C", "C", "C", "C", "C", "C", "C", "C"},
		bond(0, 1, BondAromatic), bond(1, 2, BondAromatic), bond(2, 3, BondAromatic),
		bond(3, 4, BondAromatic), bond(4, 5, BondAromatic), bond(5, 0, BondAromatic),
		bond(5, 6, BondAromatic), bond(6, 7, BondAromatic), bond(7, 8, BondAromatic),
		bond(8, 9, BondAromatic), bond(9, 0, BondAromatic),
	)
}

// requireValidMapping asserts injectivity and adjacency preservation.
func requireValidMapping(t *testing.T, q, tg Graph, m Mapping) {
	t.Helper()
	seenQ := map[int]bool{}
	seenT := map[int]bool{}
	for _, p := range m.Pairs() {
		require.False(t, seenQ[p.Query], "query atom %d mapped twice", p.Query)
		require.False(t, seenT[p.Target], "target atom %d mapped twice", p.Target)
		seenQ[p.Query], seenT[p.Target] = true, true
	}
	for _, p := range m.Pairs() {
		for _, qn := range q.NeighborsOf(p.Query) {
			tn, ok := m.TargetOf(qn)
			if !ok {
				continue
			}
			assert.True(t, tg.IsBonded(p.Target, tn),
				"query bond %d-%d maps to non-bond %d-%d", p.Query, qn, p.Target, tn)
		}
	}
}

func exactOpts() Options {
	o := DefaultOptions()
	o.TimeLimit = NoTimeLimit
	return o
}

//Personal.AI order the ending
