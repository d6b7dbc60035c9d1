package matching

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Stats describes the work a Match call performed.
type Stats struct {
	QueryAtoms     int           `json:"query_atoms"`
	TargetAtoms    int           `json:"target_atoms"`
	StatesExpanded int64         `json:"states_expanded"`
	Tasks          int           `json:"tasks"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Result is the outcome of a Match call.
type Result struct {
	Mappings []Mapping `json:"mappings"`
	Status   Status    `json:"status"`
	Stats    Stats     `json:"stats"`
}

// Matcher is the matching entry point for one session. It shares a single
// LabelRegistry between every call so label identifiers stay stable until
// Reset.
//
// A Matcher is safe for concurrent use.
type Matcher struct {
	registry *LabelRegistry
}

// NewMatcher returns a Matcher over reg. A nil registry gets a fresh one.
func NewMatcher(reg *LabelRegistry) *Matcher {
	if reg == nil {
		reg = NewLabelRegistry()
	}
	return &Matcher{registry: reg}
}

// Registry returns the session's label registry.
func (m *Matcher) Registry() *LabelRegistry { return m.registry }

// Reset ends the session: every caller label and binding is dropped.
func (m *Matcher) Reset() { m.registry.Reset() }

// Session returns a Matcher over a registry layered on m's. Labels interned
// and groups bound through it are discarded with it; m is left unchanged.
func (m *Matcher) Session() *Matcher {
	return &Matcher{registry: m.registry.Session()}
}

// Match searches for mappings of query into target.
//
// Options are validated first, then both graphs; either failure is returned
// as an error before any search state exists. An expired deadline is not an
// error: the run reports StatusTimedOut with whatever was found. A run that
// finishes without a mapping reports StatusNoMatch.
func (m *Matcher) Match(ctx context.Context, query, target Graph, opts Options) (*Result, error) {
	start := time.Now()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	qg, err := prepare("query", query, m.registry)
	if err != nil {
		return nil, err
	}
	tg, err := prepare("target", target, m.registry)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Mappings: []Mapping{},
		Stats:    Stats{QueryAtoms: qg.n, TargetAtoms: tg.n},
	}
	defer func() { res.Stats.Elapsed = time.Since(start) }()

	if opts.TimeLimit != NoTimeLimit {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}
	if ctx.Err() != nil {
		res.Status = StatusTimedOut
		return res, nil
	}

	if qg.n == 0 || tg.n == 0 || (opts.Mode == ModeExact && qg.n > tg.n) {
		res.Status = StatusNoMatch
		return res, nil
	}

	cfg := &searchConfig{
		query:         qg,
		target:        tg,
		labels:        newLabelMatrix(qg, tg, m.registry),
		bondType:      opts.MatchBondType,
		equivalence:   opts.equivalence(),
		stereo:        opts.MatchStereo && qg.stereogenic(),
		lookAhead:     opts.lookAhead(),
		mcs:           opts.Mode == ModeMCS,
		tolerance:     opts.MCSTolerance,
		limit:         opts.ResultLimit,
		uniqueTargets: opts.UniqueTargets,
	}

	branches := rootBranches(cfg)
	if len(branches) == 0 {
		res.Status = StatusNoMatch
		return res, nil
	}

	results, ran := runBranches(ctx, cfg, branches, opts.workers())
	res.Stats.Tasks = ran

	best, timedOut := 0, false
	for _, r := range results {
		res.Stats.StatesExpanded += r.expanded
		timedOut = timedOut || r.timedOut
		if r.best > best {
			best = r.best
		}
	}
	minSize := 1
	if cfg.mcs && best-cfg.tolerance > minSize {
		minSize = best - cfg.tolerance
	}

	final := NewAggregator(cfg.uniqueTargets)
	for _, r := range results {
		if r.found != nil {
			final.absorb(r.found, minSize)
		}
	}
	mappings, interrupted := final.collect(ctx.Done(), opts.SortOrder, opts.ResultLimit, minSize)
	res.Mappings = mappings
	timedOut = timedOut || interrupted

	switch {
	case timedOut:
		res.Status = StatusTimedOut
	case len(res.Mappings) == 0:
		res.Status = StatusNoMatch
	default:
		res.Status = StatusComplete
	}
	return res, nil
}

// runBranches fans the first-level branches out to at most workers tasks.
// Results are indexed by branch so merging is independent of scheduling. In
// EXACT mode with a result limit, branches after the first one that filled
// the limit are not started.
func runBranches(ctx context.Context, cfg *searchConfig, branches []branch, workers int) ([]taskResult, int) {
	results := make([]taskResult, len(branches))
	var stopAfter atomic.Int64
	stopAfter.Store(int64(len(branches)))
	var ran atomic.Int64

	var g errgroup.Group
	g.SetLimit(workers)
	for i, b := range branches {
		i, b := i, b
		if int64(i) > stopAfter.Load() {
			break
		}
		g.Go(func() error {
			if int64(i) > stopAfter.Load() {
				return nil
			}
			ran.Add(1)
			r := newSearcher(cfg, ctx.Done()).run(b)
			results[i] = r
			if !cfg.mcs && cfg.limit > 0 && r.found.Len() >= cfg.limit {
				for {
					cur := stopAfter.Load()
					if int64(i) >= cur || stopAfter.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, int(ran.Load())
}

//Personal.AI order the ending
