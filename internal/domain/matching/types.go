package matching

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// BondOrder
// ─────────────────────────────────────────────────────────────────────────────

// BondOrder is the order/type of a bond as reported by a Graph adapter.
// Values follow the MDL bond-type column so adapters can pass them through.
type BondOrder int

const (
	BondUnknown  BondOrder = 0
	BondSingle   BondOrder = 1
	BondDouble   BondOrder = 2
	BondTriple   BondOrder = 3
	BondAromatic BondOrder = 4
	// BondAny is a query bond that matches every target bond.
	BondAny BondOrder = 8
)

func (b BondOrder) String() string {
	switch b {
	case BondSingle:
		return "single"
	case BondDouble:
		return "double"
	case BondTriple:
		return "triple"
	case BondAromatic:
		return "aromatic"
	case BondAny:
		return "any"
	default:
		return "unknown"
	}
}

// IsValid reports whether b is one of the defined bond orders.
func (b BondOrder) IsValid() bool {
	switch b {
	case BondUnknown, BondSingle, BondDouble, BondTriple, BondAromatic, BondAny:
		return true
	}
	return false
}

// BondEquivalence selects which bond orders compare equal when bond typing is on.
type BondEquivalence string

const (
	// EquivalenceStrict requires identical orders.
	EquivalenceStrict BondEquivalence = "strict"
	// EquivalenceAromatic additionally treats aromatic as single or double.
	EquivalenceAromatic BondEquivalence = "aromatic"
)

// IsValid reports whether e is a known equivalence class.
func (e BondEquivalence) IsValid() bool {
	return e == EquivalenceStrict || e == EquivalenceAromatic
}

// ParseBondEquivalence parses a case-insensitive equivalence name.
// The empty string yields EquivalenceStrict.
func ParseBondEquivalence(s string) (BondEquivalence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return EquivalenceStrict, nil
	case "aromatic":
		return EquivalenceAromatic, nil
	}
	return "", fmt.Errorf("unknown bond equivalence %q", s)
}

// bondsCompatible reports whether the query bond order q accepts the target order t.
func bondsCompatible(q, t BondOrder, eq BondEquivalence) bool {
	if q == BondAny || q == t {
		return true
	}
	if eq == EquivalenceAromatic {
		switch {
		case q == BondAromatic:
			return t == BondSingle || t == BondDouble
		case t == BondAromatic:
			return q == BondSingle || q == BondDouble
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Mode
// ─────────────────────────────────────────────────────────────────────────────

// Mode selects between full subgraph isomorphism and maximum common substructure.
type Mode string

const (
	ModeExact Mode = "EXACT"
	ModeMCS   Mode = "MCS"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeExact || m == ModeMCS
}

// ParseMode accepts "exact", "mcs" and "maximum_common_substructure" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "EXACT":
		return ModeExact, nil
	case "MCS", "MAXIMUM_COMMON_SUBSTRUCTURE":
		return ModeMCS, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

// ─────────────────────────────────────────────────────────────────────────────
// SortOrder
// ─────────────────────────────────────────────────────────────────────────────

// SortOrder is the direction in which mappings are ranked by size.
type SortOrder string

const (
	Ascending  SortOrder = "ASCENDING"
	Descending SortOrder = "DESCENDING"
)

// IsValid reports whether o is a known direction.
func (o SortOrder) IsValid() bool {
	return o == Ascending || o == Descending
}

// ParseSortOrder accepts "asc", "ascending", "desc" and "descending" in any case.
// The empty string yields Descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "DESC", "DESCENDING":
		return Descending, nil
	case "ASC", "ASCENDING":
		return Ascending, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// ─────────────────────────────────────────────────────────────────────────────
// Status
// ─────────────────────────────────────────────────────────────────────────────

// Status is the outcome of a match run.
type Status string

const (
	// StatusComplete means the search space was exhausted (or the result
	// limit reached) and at least one mapping was found.
	StatusComplete Status = "COMPLETE"
	// StatusTimedOut means the deadline or cancellation stopped the search.
	// Mappings returned alongside it are valid but possibly not exhaustive.
	StatusTimedOut Status = "TIMED_OUT"
	// StatusNoMatch means the search finished without finding a mapping.
	StatusNoMatch Status = "NO_MATCH"
)

// Completed reports whether the run finished without hitting the deadline.
func (s Status) Completed() bool {
	return s == StatusComplete || s == StatusNoMatch
}

func (s Status) String() string { return string(s) }

//Personal.AI order the ending
