package matching

const (
	unmapped = -1
	// skipChoice marks a frame whose query atom was left out of the mapping (MCS only).
	skipChoice = -2
)

// frame is one level of the explicit search stack. Candidates live in the
// shared arena between candStart and candEnd; cursor is the next one to try.
type frame struct {
	query     int
	candStart int
	candEnd   int
	cursor    int
	choice    int
	skipDone  bool
}

// candidateState is the partial mapping owned by one search task together
// with its frontier bookkeeping. Frontier membership is tracked as a count of
// mapped neighbors per atom, so apply and undo are O(degree).
type candidateState struct {
	q2t       []int
	t2q       []int
	decided   []bool
	qFront    []int
	tFront    []int
	size      int
	undecided int
	order     []Pair

	stack []frame
	arena []int
}

func newCandidateState(nq, nt int) *candidateState {
	s := &candidateState{
		q2t:       make([]int, nq),
		t2q:       make([]int, nt),
		decided:   make([]bool, nq),
		qFront:    make([]int, nq),
		tFront:    make([]int, nt),
		undecided: nq,
		order:     make([]Pair, 0, nq),
		stack:     make([]frame, 0, nq),
		arena:     make([]int, 0, nt*2),
	}
	for i := range s.q2t {
		s.q2t[i] = unmapped
	}
	for i := range s.t2q {
		s.t2q[i] = unmapped
	}
	return s
}

func (s *candidateState) apply(q, t int, qg, tg *preparedGraph) {
	s.q2t[q] = t
	s.t2q[t] = q
	s.decided[q] = true
	s.undecided--
	s.size++
	s.order = append(s.order, Pair{Query: q, Target: t})
	for _, n := range qg.adj[q] {
		s.qFront[n]++
	}
	for _, n := range tg.adj[t] {
		s.tFront[n]++
	}
}

func (s *candidateState) undo(q, t int, qg, tg *preparedGraph) {
	for _, n := range qg.adj[q] {
		s.qFront[n]--
	}
	for _, n := range tg.adj[t] {
		s.tFront[n]--
	}
	s.order = s.order[:len(s.order)-1]
	s.size--
	s.undecided++
	s.decided[q] = false
	s.t2q[t] = unmapped
	s.q2t[q] = unmapped
}

func (s *candidateState) skip(q int) {
	s.decided[q] = true
	s.undecided--
}

func (s *candidateState) unskip(q int) {
	s.decided[q] = false
	s.undecided++
}

// nextQuery picks the lowest-id undecided query atom on the frontier, falling
// back to the lowest-id undecided atom. It returns -1 when all are decided.
func (s *candidateState) nextQuery() int {
	fallback := -1
	for q, done := range s.decided {
		if done {
			continue
		}
		if s.qFront[q] > 0 {
			return q
		}
		if fallback < 0 {
			fallback = q
		}
	}
	return fallback
}

// pushFrame opens a frame for query atom q. When q has a mapped neighbor its
// candidates are restricted to the neighbors of that neighbor's image;
// otherwise every target atom is a candidate.
func (s *candidateState) pushFrame(q int, qg, tg *preparedGraph) {
	start := len(s.arena)
	anchor := unmapped
	for _, n := range qg.adj[q] {
		if s.q2t[n] != unmapped {
			anchor = s.q2t[n]
			break
		}
	}
	if anchor != unmapped {
		s.arena = append(s.arena, tg.adj[anchor]...)
	} else {
		for t := 0; t < tg.n; t++ {
			s.arena = append(s.arena, t)
		}
	}
	s.stack = append(s.stack, frame{
		query:     q,
		candStart: start,
		candEnd:   len(s.arena),
		cursor:    start,
		choice:    unmapped,
	})
}

// popFrame discards the top frame and releases its arena range.
func (s *candidateState) popFrame() {
	top := s.stack[len(s.stack)-1]
	s.arena = s.arena[:top.candStart]
	s.stack = s.stack[:len(s.stack)-1]
}

// snapshot copies the current mapping.
func (s *candidateState) snapshot() Mapping {
	return NewMapping(s.order...)
}

//Personal.AI order the ending
