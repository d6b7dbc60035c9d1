package matching

import (
	"time"

	domain "github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/internal/domain/molecule"
)

// MoleculeInput names a molecule in one of three ways. Exactly one field
// must be set.
type MoleculeInput struct {
	// Molfile is an inline MDL V2000 record.
	Molfile string `json:"molfile,omitempty"`
	// Molecule is an inline graph.
	Molecule *molecule.Molecule `json:"molecule,omitempty"`
	// ObjectKey loads a stored molfile.
	ObjectKey string `json:"object_key,omitempty"`
}

// OptionsInput overrides the configured default options. Nil fields keep the
// default.
type OptionsInput struct {
	Mode            *string `json:"mode,omitempty"`
	MatchBondType   *bool   `json:"match_bond_type,omitempty"`
	BondEquivalence *string `json:"bond_equivalence,omitempty"`
	MatchStereo     *bool   `json:"match_stereo,omitempty"`
	// Timeout is a Go duration string such as "500ms" or "10s".
	Timeout       *string `json:"timeout,omitempty"`
	ResultLimit   *int    `json:"result_limit,omitempty"`
	SortOrder     *string `json:"sort_order,omitempty"`
	Parallelism   *int    `json:"parallelism,omitempty"`
	MCSTolerance  *int    `json:"mcs_tolerance,omitempty"`
	UniqueTargets *bool   `json:"unique_targets,omitempty"`
	LookAhead     *bool   `json:"look_ahead,omitempty"`
	// RGroups binds query labels such as "R1" (from M  RGP) to the atom
	// labels they stand for. An empty member list accepts any atom.
	RGroups map[string][]string `json:"rgroups,omitempty"`
}

// matchOptions is a validated OptionsInput merged over the defaults.
type matchOptions struct {
	domain.Options
	// rgroups has sorted, duplicate-free member lists.
	rgroups map[string][]string
}

type MatchRequest struct {
	Query   MoleculeInput `json:"query"`
	Target  MoleculeInput `json:"target"`
	Options OptionsInput  `json:"options"`
}

type MatchResponse struct {
	RunID    string           `json:"run_id"`
	Status   domain.Status    `json:"status"`
	Mappings []domain.Mapping `json:"mappings"`
	Stats    domain.Stats     `json:"stats"`
	Options  domain.Options   `json:"options"`
	// Cached is true when the result came from the result cache; Stats then
	// describe the run that populated it.
	Cached bool `json:"cached"`
}

// cachedResult is the cache payload: everything but the per-call fields.
type cachedResult struct {
	Status   domain.Status    `json:"status"`
	Mappings []domain.Mapping `json:"mappings"`
	Stats    domain.Stats     `json:"stats"`
}

// JobRequest asks for one query to be matched against many targets
// asynchronously.
type JobRequest struct {
	JobID   string          `json:"job_id,omitempty"`
	Query   MoleculeInput   `json:"query"`
	Targets []MoleculeInput `json:"targets,omitempty"`
	// TargetPrefix adds every stored object under the prefix as a target.
	TargetPrefix string       `json:"target_prefix,omitempty"`
	Options      OptionsInput `json:"options"`
	SubmittedAt  time.Time    `json:"submitted_at"`
}

// Job statuses.
const (
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobSkipped   = "skipped"
)

// TargetResult is the outcome for one target of a job. Error is set instead
// of Status when the target could not be matched (e.g. an invalid graph).
type TargetResult struct {
	Target   string           `json:"target"`
	Status   domain.Status    `json:"status,omitempty"`
	Mappings []domain.Mapping `json:"mappings,omitempty"`
	Stats    *domain.Stats    `json:"stats,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type JobResult struct {
	JobID      string         `json:"job_id"`
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	Results    []TargetResult `json:"results"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

//Personal.AI order the ending
