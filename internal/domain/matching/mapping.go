package matching

import (
	"encoding/binary"
	"encoding/json"
	"sort"
)

// Pair links a query atom to a target atom.
type Pair struct {
	Query  int `json:"query"`
	Target int `json:"target"`
}

// Mapping is an injective, ordered list of atom pairs. The order is the order
// in which the engine extended the mapping; equivalence ignores it.
type Mapping struct {
	pairs []Pair
}

// NewMapping builds a Mapping from pairs. The slice is copied.
func NewMapping(pairs ...Pair) Mapping {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	return Mapping{pairs: cp}
}

// Size returns the number of paired atoms.
func (m Mapping) Size() int { return len(m.pairs) }

// Pairs returns a copy of the pairs in construction order.
func (m Mapping) Pairs() []Pair {
	cp := make([]Pair, len(m.pairs))
	copy(cp, m.pairs)
	return cp
}

// TargetOf returns the target atom paired with query atom q.
func (m Mapping) TargetOf(q int) (int, bool) {
	for _, p := range m.pairs {
		if p.Query == q {
			return p.Target, true
		}
	}
	return 0, false
}

// Key returns a canonical identity for the pair set: two mappings with the
// same pairs in any order share a key.
func (m Mapping) Key() string {
	sorted := m.Pairs()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Query < sorted[j].Query })
	buf := make([]byte, 0, len(sorted)*4)
	for _, p := range sorted {
		buf = binary.AppendUvarint(buf, uint64(p.Query))
		buf = binary.AppendUvarint(buf, uint64(p.Target))
	}
	return string(buf)
}

// TargetKey returns a canonical identity for the set of target atoms covered.
func (m Mapping) TargetKey() string {
	ts := make([]int, len(m.pairs))
	for i, p := range m.pairs {
		ts[i] = p.Target
	}
	sort.Ints(ts)
	buf := make([]byte, 0, len(ts)*2)
	for _, t := range ts {
		buf = binary.AppendUvarint(buf, uint64(t))
	}
	return string(buf)
}

// Equivalent reports whether m and o pair the same atoms.
func (m Mapping) Equivalent(o Mapping) bool {
	return len(m.pairs) == len(o.pairs) && m.subsetOf(o)
}

// subsetOf reports whether every pair of m also appears in o.
func (m Mapping) subsetOf(o Mapping) bool {
	if len(m.pairs) > len(o.pairs) {
		return false
	}
	index := make(map[int]int, len(o.pairs))
	for _, p := range o.pairs {
		index[p.Query] = p.Target
	}
	for _, p := range m.pairs {
		if t, ok := index[p.Query]; !ok || t != p.Target {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the mapping as its pair list.
func (m Mapping) MarshalJSON() ([]byte, error) {
	if m.pairs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.pairs)
}

// UnmarshalJSON decodes a pair list.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var pairs []Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	m.pairs = pairs
	return nil
}

//Personal.AI order the ending
