package matching

import (
	"sort"
)

// Graph is the read-only capability set the engine needs from a molecular
// graph. Atoms are identified by dense indices 0..AtomCount()-1. One adapter
// per chemistry toolkit implements it; the engine never sees toolkit types.
//
// Implementations must be safe for concurrent readers. The engine snapshots
// each Graph once per Match call and never mutates it.
type Graph interface {
	AtomCount() int
	NeighborsOf(atom int) []int
	IsBonded(a, b int) bool
	BondOrder(a, b int) BondOrder
	// LabelOf returns the atom type token, e.g. an element symbol, "*" or "R1".
	LabelOf(atom int) string
	StereoOf(atom int) StereoDescriptor
	BondStereoOf(a, b int) StereoDescriptor
}

// preparedGraph is an immutable, validated snapshot of a Graph. Neighbor
// lists are sorted and the bond attributes are stored parallel to them so
// lookups never go back to the adapter.
type preparedGraph struct {
	n          int
	adj        [][]int
	orders     [][]BondOrder
	bondStereo [][]StereoDescriptor
	labels     []LabelID
	stereo     []StereoDescriptor
}

// prepare snapshots and validates g. role names the graph in error details.
func prepare(role string, g Graph, reg *LabelRegistry) (*preparedGraph, error) {
	if g == nil {
		return nil, invalidGraph(role, "graph is nil")
	}
	n := g.AtomCount()
	if n < 0 {
		return nil, invalidGraph(role, "negative atom count %d", n)
	}

	p := &preparedGraph{
		n:          n,
		adj:        make([][]int, n),
		orders:     make([][]BondOrder, n),
		bondStereo: make([][]StereoDescriptor, n),
		labels:     make([]LabelID, n),
		stereo:     make([]StereoDescriptor, n),
	}

	for a := 0; a < n; a++ {
		label := g.LabelOf(a)
		if label == "" {
			return nil, invalidGraph(role, "atom %d has no label", a)
		}
		p.labels[a] = reg.Intern(label)

		s := g.StereoOf(a)
		if !s.IsValid() || !s.validOnAtom() {
			return nil, invalidGraph(role, "atom %d carries illegal stereo descriptor %s", a, s)
		}
		p.stereo[a] = s

		raw := g.NeighborsOf(a)
		nbrs := make([]int, len(raw))
		copy(nbrs, raw)
		sort.Ints(nbrs)
		for i, b := range nbrs {
			switch {
			case b < 0 || b >= n:
				return nil, invalidGraph(role, "atom %d is bonded to nonexistent atom %d", a, b)
			case b == a:
				return nil, invalidGraph(role, "atom %d is bonded to itself", a)
			case i > 0 && nbrs[i-1] == b:
				return nil, invalidGraph(role, "atom %d lists neighbor %d twice", a, b)
			}
		}
		p.adj[a] = nbrs
		p.orders[a] = make([]BondOrder, len(nbrs))
		p.bondStereo[a] = make([]StereoDescriptor, len(nbrs))
	}

	for a := 0; a < n; a++ {
		for i, b := range p.adj[a] {
			j, ok := p.edgeIndex(b, a)
			if !ok {
				return nil, invalidGraph(role, "bond %d-%d is not reciprocated by atom %d", a, b, b)
			}
			if b < a {
				continue
			}
			if !g.IsBonded(a, b) {
				return nil, invalidGraph(role, "atoms %d and %d are neighbors but not bonded", a, b)
			}
			order := g.BondOrder(a, b)
			if !order.IsValid() {
				return nil, invalidGraph(role, "bond %d-%d has unknown order %d", a, b, int(order))
			}
			bs := g.BondStereoOf(a, b)
			if !bs.IsValid() || !bs.validOnBond() {
				return nil, invalidGraph(role, "bond %d-%d carries illegal stereo descriptor %s", a, b, bs)
			}
			p.orders[a][i], p.orders[b][j] = order, order
			p.bondStereo[a][i], p.bondStereo[b][j] = bs, bs
		}
	}
	return p, nil
}

// edgeIndex returns the position of b in a's neighbor list.
func (p *preparedGraph) edgeIndex(a, b int) (int, bool) {
	nbrs := p.adj[a]
	if len(nbrs) <= 8 {
		for i, v := range nbrs {
			if v == b {
				return i, true
			}
		}
		return 0, false
	}
	i := sort.SearchInts(nbrs, b)
	return i, i < len(nbrs) && nbrs[i] == b
}

func (p *preparedGraph) degree(a int) int { return len(p.adj[a]) }

// stereogenic reports whether any atom or bond carries a descriptor.
func (p *preparedGraph) stereogenic() bool {
	for _, s := range p.stereo {
		if s != StereoNone {
			return true
		}
	}
	for _, row := range p.bondStereo {
		for _, s := range row {
			if s != StereoNone {
				return true
			}
		}
	}
	return false
}

// ValidateGraph checks g the same way Match does before searching and returns
// an InvalidGraph error on the first defect found. Labels are interned into
// reg; pass a scratch registry when that side effect is unwanted.
func ValidateGraph(g Graph, reg *LabelRegistry) error {
	_, err := prepare("graph", g, reg)
	return err
}

//Personal.AI order the ending
