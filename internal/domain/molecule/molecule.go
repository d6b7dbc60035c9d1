// Package molecule provides the in-memory molecular graph used by MolMatch.
// The Molecule aggregate holds atoms, bonds and SD properties and implements
// matching.Graph, so it can be handed to the matcher directly.
package molecule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Value Objects
// ─────────────────────────────────────────────────────────────────────────────

// Atom is a single node of the molecular graph.
type Atom struct {
	// Symbol is the element symbol or a generic token such as "*", "R" or "R1".
	Symbol string                    `json:"symbol"`
	Charge int                       `json:"charge,omitempty"`
	Stereo matching.StereoDescriptor `json:"stereo,omitempty"`
	X      float64                   `json:"x,omitempty"`
	Y      float64                   `json:"y,omitempty"`
	Z      float64                   `json:"z,omitempty"`
}

// Bond connects two atoms by zero-based index.
type Bond struct {
	From   int                       `json:"from"`
	To     int                       `json:"to"`
	Order  matching.BondOrder        `json:"order"`
	Stereo matching.StereoDescriptor `json:"stereo,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule Aggregate Root
// ─────────────────────────────────────────────────────────────────────────────

// Molecule is a read-only molecular graph. Build it with New or a reader such
// as ParseMolfile; mutating Atoms or Bonds afterwards is not supported.
type Molecule struct {
	Name       string            `json:"name,omitempty"`
	Atoms      []Atom            `json:"atoms"`
	Bonds      []Bond            `json:"bonds"`
	Properties map[string]string `json:"properties,omitempty"`

	once  sync.Once
	adj   [][]int
	bonds map[[2]int]int
}

// New builds a Molecule from atoms and bonds. Bonds are not validated here;
// call Validate, or let the matcher reject a malformed graph.
func New(name string, atoms []Atom, bonds []Bond) *Molecule {
	return &Molecule{Name: name, Atoms: atoms, Bonds: bonds}
}

func bondKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// index builds the adjacency lists once. A bond with an out-of-range endpoint
// is still recorded on its valid side so validation downstream can see it.
func (m *Molecule) index() {
	m.once.Do(func() {
		m.adj = make([][]int, len(m.Atoms))
		m.bonds = make(map[[2]int]int, len(m.Bonds))
		for i, b := range m.Bonds {
			if b.From >= 0 && b.From < len(m.Atoms) {
				m.adj[b.From] = append(m.adj[b.From], b.To)
			}
			if b.To >= 0 && b.To < len(m.Atoms) && b.To != b.From {
				m.adj[b.To] = append(m.adj[b.To], b.From)
			}
			m.bonds[bondKey(b.From, b.To)] = i
		}
	})
}

// Validate reports the first structural defect as an InvalidGraph error.
func (m *Molecule) Validate() error {
	seen := make(map[[2]int]bool, len(m.Bonds))
	for i, a := range m.Atoms {
		if strings.TrimSpace(a.Symbol) == "" {
			return invalid("atom %d has no symbol", i)
		}
	}
	for i, b := range m.Bonds {
		switch {
		case b.From < 0 || b.From >= len(m.Atoms) || b.To < 0 || b.To >= len(m.Atoms):
			return invalid("bond %d references nonexistent atom (%d-%d)", i, b.From, b.To)
		case b.From == b.To:
			return invalid("bond %d is a self loop on atom %d", i, b.From)
		case seen[bondKey(b.From, b.To)]:
			return invalid("bond %d duplicates bond %d-%d", i, b.From, b.To)
		}
		seen[bondKey(b.From, b.To)] = true
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeInvalidGraph, fmt.Sprintf(format, args...))
}

// ─────────────────────────────────────────────────────────────────────────────
// matching.Graph
// ─────────────────────────────────────────────────────────────────────────────

// AtomCount returns the number of atoms.
func (m *Molecule) AtomCount() int { return len(m.Atoms) }

// NeighborsOf returns the atoms bonded to atom. The slice is shared and must
// not be modified.
func (m *Molecule) NeighborsOf(atom int) []int {
	m.index()
	return m.adj[atom]
}

// IsBonded reports whether a bond joins a and b.
func (m *Molecule) IsBonded(a, b int) bool {
	m.index()
	_, ok := m.bonds[bondKey(a, b)]
	return ok
}

// BondOrder returns the order of the a-b bond, or BondUnknown when a and b
// are not bonded.
func (m *Molecule) BondOrder(a, b int) matching.BondOrder {
	m.index()
	if i, ok := m.bonds[bondKey(a, b)]; ok {
		return m.Bonds[i].Order
	}
	return matching.BondUnknown
}

// LabelOf returns the element symbol of atom, which is the label matched on.
func (m *Molecule) LabelOf(atom int) string { return m.Atoms[atom].Symbol }

// StereoOf returns the stereo descriptor of atom.
func (m *Molecule) StereoOf(atom int) matching.StereoDescriptor { return m.Atoms[atom].Stereo }

// BondStereoOf returns the stereo descriptor of the a-b bond, or StereoNone
// when a and b are not bonded.
func (m *Molecule) BondStereoOf(a, b int) matching.StereoDescriptor {
	m.index()
	if i, ok := m.bonds[bondKey(a, b)]; ok {
		return m.Bonds[i].Stereo
	}
	return matching.StereoNone
}

// ─────────────────────────────────────────────────────────────────────────────
// Derived values
// ─────────────────────────────────────────────────────────────────────────────

// Formula returns the Hill-ordered formula: C first, then H, then the rest
// alphabetically. Molecules without carbon are fully alphabetical.
func (m *Molecule) Formula() string {
	counts := make(map[string]int)
	for _, a := range m.Atoms {
		counts[a.Symbol]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	_, hasC := counts["C"]
	sort.Slice(keys, func(i, j int) bool {
		if hasC {
			ri, rj := hillRank(keys[i]), hillRank(keys[j])
			if ri != rj {
				return ri < rj
			}
		}
		return keys[i] < keys[j]
	})

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		if counts[k] > 1 {
			fmt.Fprintf(&sb, "%d", counts[k])
		}
	}
	return sb.String()
}

func hillRank(symbol string) int {
	switch symbol {
	case "C":
		return 0
	case "H":
		return 1
	}
	return 2
}

// Digest returns a SHA-256 over the graph content: atom symbols and stereo in
// index order plus the sorted bond list. Coordinates, name and properties are
// ignored, so the digest identifies exactly what matching depends on.
func (m *Molecule) Digest() string {
	h := sha256.New()
	for _, a := range m.Atoms {
		fmt.Fprintf(h, "a%s/%d/%d;", a.Symbol, a.Charge, a.Stereo)
	}
	keys := make([]string, 0, len(m.Bonds))
	for _, b := range m.Bonds {
		k := bondKey(b.From, b.To)
		keys = append(keys, fmt.Sprintf("b%d-%d/%d/%d;", k[0], k[1], b.Order, b.Stereo))
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
	}
	return hex.EncodeToString(h.Sum(nil))
}

//Personal.AI order the ending
