package matching

import (
	"fmt"
	"strings"
)

// StereoDescriptor annotates an atom or bond with its stereochemical configuration.
type StereoDescriptor uint8

const (
	// StereoNone marks an atom or bond that is not stereogenic or not specified.
	StereoNone StereoDescriptor = iota
	StereoR
	StereoS
	// StereoEither is a stereogenic centre of unknown or wildcard configuration.
	StereoEither
	StereoM
	StereoP
	StereoZ
	StereoE
)

var stereoNames = [...]string{"NONE", "R", "S", "EITHER", "M", "P", "Z", "E"}

func (d StereoDescriptor) String() string {
	if int(d) < len(stereoNames) {
		return stereoNames[d]
	}
	return fmt.Sprintf("StereoDescriptor(%d)", uint8(d))
}

// IsValid reports whether d is a defined descriptor.
func (d StereoDescriptor) IsValid() bool {
	return int(d) < len(stereoNames)
}

// ParseStereo parses a descriptor name. The empty string yields StereoNone.
func ParseStereo(s string) (StereoDescriptor, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return StereoNone, nil
	}
	for i, name := range stereoNames {
		if name == v {
			return StereoDescriptor(i), nil
		}
	}
	return StereoNone, fmt.Errorf("unknown stereo descriptor %q", s)
}

// MarshalText encodes the descriptor by name.
func (d StereoDescriptor) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("invalid stereo descriptor %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a descriptor name.
func (d *StereoDescriptor) UnmarshalText(text []byte) error {
	v, err := ParseStereo(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// StereoClass groups descriptors that may be compared with each other.
type StereoClass uint8

const (
	ClassNone StereoClass = iota
	// ClassCentral covers tetrahedral centres (R/S).
	ClassCentral
	// ClassAxial covers axial and helical chirality (M/P).
	ClassAxial
	// ClassDoubleBond covers double-bond geometry (Z/E).
	ClassDoubleBond
	// ClassWildcard is the class of StereoEither, which adopts the class of its position.
	ClassWildcard
)

// Class returns the comparison class of d.
func (d StereoDescriptor) Class() StereoClass {
	switch d {
	case StereoR, StereoS:
		return ClassCentral
	case StereoM, StereoP:
		return ClassAxial
	case StereoZ, StereoE:
		return ClassDoubleBond
	case StereoEither:
		return ClassWildcard
	}
	return ClassNone
}

// validOnAtom reports whether d may annotate an atom.
func (d StereoDescriptor) validOnAtom() bool {
	switch d.Class() {
	case ClassNone, ClassCentral, ClassAxial, ClassWildcard:
		return true
	}
	return false
}

// validOnBond reports whether d may annotate a bond.
func (d StereoDescriptor) validOnBond() bool {
	switch d.Class() {
	case ClassNone, ClassDoubleBond, ClassWildcard:
		return true
	}
	return false
}

// AtomStereoCompatible reports whether a query atom with descriptor q may pair
// with a target atom with descriptor t.
//
// A NONE query is stereo-agnostic and accepts anything. EITHER accepts any
// stereogenic target (R, S, M, P or EITHER) but never NONE. A concrete query
// descriptor requires the identical target descriptor, so R never pairs with S
// and R/S never pair with M/P.
func AtomStereoCompatible(q, t StereoDescriptor) bool {
	switch q {
	case StereoNone:
		return true
	case StereoEither:
		switch t.Class() {
		case ClassCentral, ClassAxial, ClassWildcard:
			return true
		}
		return false
	}
	return q == t
}

// BondStereoCompatible applies the same rule as AtomStereoCompatible to
// double-bond geometry: EITHER accepts Z, E or EITHER targets.
func BondStereoCompatible(q, t StereoDescriptor) bool {
	switch q {
	case StereoNone:
		return true
	case StereoEither:
		switch t.Class() {
		case ClassDoubleBond, ClassWildcard:
			return true
		}
		return false
	}
	return q == t
}

//Personal.AI order the ending
