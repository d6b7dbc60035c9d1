package matching

import (
	"math"
	"runtime"
	"time"
)

// NoTimeLimit disables the wall-clock budget. The caller's context still applies.
const NoTimeLimit = time.Duration(math.MaxInt64)

// Options configures a single Match call.
type Options struct {
	// MatchBondType requires compatible bond orders on every mapped bond.
	MatchBondType bool `json:"match_bond_type"`
	// BondEquivalence selects the order equivalence class. Non-strict values
	// require MatchBondType.
	BondEquivalence BondEquivalence `json:"bond_equivalence,omitempty"`
	// MatchStereo enables the stereochemical compatibility filter.
	MatchStereo bool `json:"match_stereo"`
	Mode        Mode `json:"mode"`
	// TimeLimit is the wall-clock budget. Zero is an already-expired budget.
	TimeLimit time.Duration `json:"time_limit"`
	// ResultLimit caps the number of returned mappings; 0 means no cap.
	ResultLimit int       `json:"result_limit"`
	SortOrder   SortOrder `json:"sort_order"`

	// Parallelism is the number of workers for the first-level fan-out.
	// 0 uses GOMAXPROCS, 1 searches sequentially.
	Parallelism int `json:"parallelism,omitempty"`
	// MCSTolerance keeps MCS mappings up to this many pairs smaller than the
	// best one found. Only valid in MCS mode.
	MCSTolerance int `json:"mcs_tolerance,omitempty"`
	// UniqueTargets keeps one mapping per distinct set of target atoms.
	UniqueTargets bool `json:"unique_targets,omitempty"`
	// LookAhead enables neighbor-count pruning in EXACT mode. It never
	// changes the result set, only how much of the tree is visited.
	LookAhead bool `json:"look_ahead"`
}

// DefaultOptions returns EXACT matching with bond typing and look-ahead, no
// stereo, a ten second budget, no result cap and largest-first ordering.
func DefaultOptions() Options {
	return Options{
		MatchBondType:   true,
		BondEquivalence: EquivalenceStrict,
		Mode:            ModeExact,
		TimeLimit:       10 * time.Second,
		SortOrder:       Descending,
		LookAhead:       true,
	}
}

// Validate rejects contradictory or out-of-range options.
func (o Options) Validate() error {
	switch {
	case !o.Mode.IsValid():
		return configError("unknown mode %q", o.Mode)
	case !o.SortOrder.IsValid():
		return configError("unknown sort order %q", o.SortOrder)
	case o.BondEquivalence != "" && !o.BondEquivalence.IsValid():
		return configError("unknown bond equivalence %q", o.BondEquivalence)
	case o.TimeLimit < 0:
		return configError("time limit must not be negative, got %s", o.TimeLimit)
	case o.ResultLimit < 0:
		return configError("result limit must not be negative, got %d", o.ResultLimit)
	case o.Parallelism < 0:
		return configError("parallelism must not be negative, got %d", o.Parallelism)
	case o.MCSTolerance < 0:
		return configError("mcs tolerance must not be negative, got %d", o.MCSTolerance)
	case o.MCSTolerance > 0 && o.Mode != ModeMCS:
		return configError("mcs tolerance is only meaningful in MCS mode")
	case o.BondEquivalence == EquivalenceAromatic && !o.MatchBondType:
		return configError("bond equivalence %q requires bond type matching", o.BondEquivalence)
	}
	return nil
}

func (o Options) equivalence() BondEquivalence {
	if o.BondEquivalence == "" {
		return EquivalenceStrict
	}
	return o.BondEquivalence
}

func (o Options) workers() int {
	if o.Parallelism > 0 {
		return o.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) lookAhead() bool {
	return o.Mode == ModeExact && o.LookAhead
}

//Personal.AI order the ending
