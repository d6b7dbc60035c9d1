package matching

// labelMatrix is a dense query-by-target bitset of label compatibility,
// computed once per Match call and shared read-only by every task.
type labelMatrix struct {
	nt   int
	bits []uint64
}

func newLabelMatrix(qg, tg *preparedGraph, reg *LabelRegistry) *labelMatrix {
	m := &labelMatrix{nt: tg.n, bits: make([]uint64, (qg.n*tg.n+63)/64)}
	memo := make(map[[2]LabelID]bool)
	for q := 0; q < qg.n; q++ {
		for t := 0; t < tg.n; t++ {
			key := [2]LabelID{qg.labels[q], tg.labels[t]}
			ok, seen := memo[key]
			if !seen {
				ok = reg.Accepts(key[0], key[1])
				memo[key] = ok
			}
			if ok {
				i := q*tg.n + t
				m.bits[i/64] |= 1 << (uint(i) % 64)
			}
		}
	}
	return m
}

func (m *labelMatrix) accepts(q, t int) bool {
	i := q*m.nt + t
	return m.bits[i/64]&(1<<(uint(i)%64)) != 0
}

// searchConfig is the per-run, read-only part of a search task.
type searchConfig struct {
	query, target *preparedGraph
	labels        *labelMatrix
	bondType      bool
	equivalence   BondEquivalence
	stereo        bool
	lookAhead     bool
	mcs           bool
	tolerance     int
	limit         int
	uniqueTargets bool
}

// branch is the first-level choice a task starts from: the root query atom
// either paired with target or, in MCS mode, skipped.
type branch struct {
	query  int
	target int
}

// taskResult is what one search task hands back to the matcher.
type taskResult struct {
	found    *Aggregator
	best     int
	expanded int64
	timedOut bool
}

// searcher runs the iterative depth-first search for one branch. It owns its
// candidateState exclusively.
type searcher struct {
	cfg      *searchConfig
	st       *candidateState
	agg      *Aggregator
	best     int
	expanded int64
	done     <-chan struct{}
}

func newSearcher(cfg *searchConfig, done <-chan struct{}) *searcher {
	return &searcher{
		cfg:  cfg,
		st:   newCandidateState(cfg.query.n, cfg.target.n),
		agg:  NewAggregator(cfg.uniqueTargets),
		done: done,
	}
}

// feasible tests pairing query atom q with target atom t against the current
// partial mapping: label, atom stereo, adjacency with bond order and bond
// stereo, then look-ahead.
func (s *searcher) feasible(q, t int) bool {
	cfg, st := s.cfg, s.st
	qg, tg := cfg.query, cfg.target

	if st.t2q[t] != unmapped {
		return false
	}
	if !cfg.labels.accepts(q, t) {
		return false
	}
	if cfg.stereo && !AtomStereoCompatible(qg.stereo[q], tg.stereo[t]) {
		return false
	}

	for i, qn := range qg.adj[q] {
		tm := st.q2t[qn]
		if tm == unmapped {
			continue
		}
		j, ok := tg.edgeIndex(t, tm)
		if !ok {
			return false
		}
		if cfg.bondType && !bondsCompatible(qg.orders[q][i], tg.orders[t][j], cfg.equivalence) {
			return false
		}
		if cfg.stereo && !BondStereoCompatible(qg.bondStereo[q][i], tg.bondStereo[t][j]) {
			return false
		}
	}

	if cfg.lookAhead {
		qFree, qTerm := 0, 0
		for _, qn := range qg.adj[q] {
			if st.q2t[qn] == unmapped {
				qFree++
				if st.qFront[qn] > 0 {
					qTerm++
				}
			}
		}
		tFree, tTerm := 0, 0
		for _, tn := range tg.adj[t] {
			if st.t2q[tn] == unmapped {
				tFree++
				if st.tFront[tn] > 0 {
					tTerm++
				}
			}
		}
		if qFree > tFree || qTerm > tTerm {
			return false
		}
	}
	return true
}

func (s *searcher) cancelled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// emit records the current mapping if it is terminal. It reports whether the
// task has collected enough results to stop.
func (s *searcher) emit() bool {
	st, cfg := s.st, s.cfg
	if st.size == 0 {
		return false
	}
	if cfg.mcs {
		if st.size < s.best-cfg.tolerance {
			return false
		}
		if st.size > s.best {
			s.best = st.size
			if s.best-cfg.tolerance > 1 {
				s.agg.prune(s.best - cfg.tolerance)
			}
		}
	}
	s.agg.Add(st.snapshot())
	return !cfg.mcs && cfg.limit > 0 && s.agg.Len() >= cfg.limit
}

// terminal reports whether the current state is a complete mapping.
func (s *searcher) terminal() bool {
	if s.cfg.mcs {
		return s.st.undecided == 0
	}
	return s.st.size == s.cfg.query.n
}

// bounded reports whether the current MCS branch can still reach the
// retention threshold.
func (s *searcher) bounded() bool {
	if !s.cfg.mcs {
		return true
	}
	st := s.st
	room := s.cfg.target.n - st.size
	if st.undecided < room {
		room = st.undecided
	}
	return st.size+room >= s.best-s.cfg.tolerance
}

// descend handles a freshly extended state: emit if terminal, otherwise open a
// frame for the next query atom. It reports whether the task should stop.
func (s *searcher) descend() bool {
	if s.terminal() {
		return s.emit()
	}
	if !s.bounded() {
		return false
	}
	if q := s.st.nextQuery(); q >= 0 {
		s.st.pushFrame(q, s.cfg.query, s.cfg.target)
	}
	return false
}

// run explores the subtree below b and returns what it found.
func (s *searcher) run(b branch) taskResult {
	qg, tg := s.cfg.query, s.cfg.target
	st := s.st

	if s.cancelled() {
		return s.result(true)
	}
	s.expanded++
	if b.target == skipChoice {
		st.skip(b.query)
	} else {
		st.apply(b.query, b.target, qg, tg)
	}
	if s.descend() {
		return s.result(false)
	}

	for len(st.stack) > 0 {
		if s.cancelled() {
			return s.result(true)
		}
		f := &st.stack[len(st.stack)-1]

		switch {
		case f.choice >= 0:
			st.undo(f.query, f.choice, qg, tg)
		case f.choice == skipChoice:
			st.unskip(f.query)
		}
		f.choice = unmapped

		extended := false
		for f.cursor < f.candEnd {
			t := st.arena[f.cursor]
			f.cursor++
			if s.feasible(f.query, t) {
				st.apply(f.query, t, qg, tg)
				f.choice = t
				extended = true
				break
			}
		}
		if !extended && s.cfg.mcs && !f.skipDone {
			f.skipDone = true
			st.skip(f.query)
			f.choice = skipChoice
			extended = true
		}
		if !extended {
			st.popFrame()
			continue
		}

		s.expanded++
		if s.descend() {
			return s.result(false)
		}
	}
	return s.result(false)
}

func (s *searcher) result(timedOut bool) taskResult {
	return taskResult{
		found:    s.agg,
		best:     s.best,
		expanded: s.expanded,
		timedOut: timedOut,
	}
}

// rootBranches lists the first-level choices: every feasible target for the
// root query atom, then the skip branch in MCS mode.
func rootBranches(cfg *searchConfig) []branch {
	scout := newSearcher(cfg, nil)
	q := scout.st.nextQuery()
	if q < 0 {
		return nil
	}
	var out []branch
	for t := 0; t < cfg.target.n; t++ {
		if scout.feasible(q, t) {
			out = append(out, branch{query: q, target: t})
		}
	}
	if cfg.mcs {
		out = append(out, branch{query: q, target: skipChoice})
	}
	return out
}

//Personal.AI order the ending
