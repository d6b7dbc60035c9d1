package testutil

import (
	"github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/internal/domain/molecule"
)

func atoms(symbols ...string) []molecule.Atom {
	out := make([]molecule.Atom, len(symbols))
	for i, s := range symbols {
		out[i] = molecule.Atom{Symbol: s}
	}
	return out
}

func ring(n int, order matching.BondOrder) []molecule.Bond {
	bonds := make([]molecule.Bond, n)
	for i := range bonds {
		bonds[i] = molecule.Bond{From: i, To: (i + 1) % n, Order: order}
	}
	return bonds
}

// Benzene is an aromatic six-ring without hydrogens.
func Benzene() *molecule.Molecule {
	return molecule.New("benzene", atoms("C", "C", "C", "C", "C", "C"), ring(6, matching.BondAromatic))
}

// Toluene is benzene with a methyl on atom 0.
func Toluene() *molecule.Molecule {
	m := molecule.New("toluene", atoms("C", "C", "C", "C", "C", "C", "C"), ring(6, matching.BondAromatic))
	m.Bonds = append(m.Bonds, molecule.Bond{From: 0, To: 6, Order: matching.BondSingle})
	return m
}

// Ethanol is C-C-O.
func Ethanol() *molecule.Molecule {
	return molecule.New("ethanol", atoms("C", "C", "O"), []molecule.Bond{
		{From: 0, To: 1, Order: matching.BondSingle},
		{From: 1, To: 2, Order: matching.BondSingle},
	})
}

// Hydroxyl is the two-atom C-O query.
func Hydroxyl() *molecule.Molecule {
	return molecule.New("hydroxyl", atoms("C", "O"), []molecule.Bond{{From: 0, To: 1, Order: matching.BondSingle}})
}

// Methane is a single carbon.
func Methane() *molecule.Molecule {
	return molecule.New("methane", atoms("C"), nil)
}

//Personal.AI order the ending
