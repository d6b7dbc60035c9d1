package matching

import "sort"

// Aggregator collects terminal mappings, removes duplicates and subsumed
// mappings, and hands back a ranked result list.
//
// An Aggregator is not safe for concurrent use; each search task feeds its
// own and the matcher merges them in task order.
type Aggregator struct {
	uniqueTargets bool
	seen          map[string]struct{}
	items         []Mapping
	keys          []string
}

// NewAggregator returns an empty Aggregator. With uniqueTargets set, only the
// first mapping per distinct target atom set is kept, which collapses the
// symmetric copies an automorphic query produces.
func NewAggregator(uniqueTargets bool) *Aggregator {
	return &Aggregator{
		uniqueTargets: uniqueTargets,
		seen:          make(map[string]struct{}),
	}
}

// Add records m unless it is empty or equivalent to one already held.
// It reports whether m was kept.
func (a *Aggregator) Add(m Mapping) bool {
	if m.Size() == 0 {
		return false
	}
	key := m.Key()
	if a.uniqueTargets {
		key = m.TargetKey()
	}
	return a.add(m, key)
}

func (a *Aggregator) add(m Mapping, key string) bool {
	if _, dup := a.seen[key]; dup {
		return false
	}
	a.seen[key] = struct{}{}
	a.items = append(a.items, m)
	a.keys = append(a.keys, key)
	return true
}

// absorb adds every mapping of o of at least minSize, in o's order, reusing
// the keys o already computed. Both aggregators must agree on uniqueTargets.
func (a *Aggregator) absorb(o *Aggregator, minSize int) {
	for i, m := range o.items {
		if m.Size() >= minSize {
			a.add(m, o.keys[i])
		}
	}
}

// prune drops every held mapping smaller than minSize.
func (a *Aggregator) prune(minSize int) {
	n := 0
	for i, m := range a.items {
		if m.Size() < minSize {
			delete(a.seen, a.keys[i])
			continue
		}
		a.items[n], a.keys[n] = m, a.keys[i]
		n++
	}
	clear(a.items[n:])
	clear(a.keys[n:])
	a.items, a.keys = a.items[:n], a.keys[:n]
}

// Len returns the number of distinct mappings held.
func (a *Aggregator) Len() int { return len(a.items) }

// MaxSize returns the size of the largest mapping held, or 0.
func (a *Aggregator) MaxSize() int {
	best := 0
	for _, m := range a.items {
		if m.Size() > best {
			best = m.Size()
		}
	}
	return best
}

// Results drops mappings whose pair set is a strict subset of another held
// mapping, ranks the rest by size in the given order and truncates the list to
// limit entries. A limit of 0 or less means no cap. Mappings smaller than
// minSize are dropped first.
func (a *Aggregator) Results(order SortOrder, limit, minSize int) []Mapping {
	out, _ := a.collect(nil, order, limit, minSize)
	return out
}

// collect is Results bounded by done. When done closes during subsumption
// pruning, mappings not yet checked are left out and interrupted is true.
func (a *Aggregator) collect(done <-chan struct{}, order SortOrder, limit, minSize int) (out []Mapping, interrupted bool) {
	pool := make([]Mapping, 0, len(a.items))
	for _, m := range a.items {
		if m.Size() >= minSize {
			pool = append(pool, m)
		}
	}

	keep, interrupted := dropSubsumed(done, pool)
	out = make([]Mapping, 0, len(pool))
	for i, m := range pool {
		if keep[i] {
			out = append(out, m)
		}
	}
	RankMappings(out, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, interrupted
}

// pairRef names one pair of one kept mapping.
type pairRef struct {
	pair Pair
	id   int32
}

// dropSubsumed marks which mappings of pool survive subsumption pruning. Sizes
// are visited largest first and a mapping is only tested against kept
// mappings of a strictly larger size, looked up through a posting list per
// pair. A pool with a single size cannot hold a strict subset and is kept
// whole.
func dropSubsumed(done <-chan struct{}, pool []Mapping) ([]bool, bool) {
	keep := make([]bool, len(pool))
	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return pool[order[i]].Size() > pool[order[j]].Size()
	})
	if len(pool) < 2 || pool[order[0]].Size() == pool[order[len(order)-1]].Size() {
		for i := range keep {
			keep[i] = true
		}
		return keep, false
	}

	postings := make(map[Pair][]int32)
	member := make(map[pairRef]struct{})
	index := func(i int) {
		for _, p := range pool[i].pairs {
			postings[p] = append(postings[p], int32(i))
			member[pairRef{p, int32(i)}] = struct{}{}
		}
	}
	subsumed := func(m Mapping) bool {
		var shortest []int32
		for k, p := range m.pairs {
			list, ok := postings[p]
			if !ok {
				return false
			}
			if k == 0 || len(list) < len(shortest) {
				shortest = list
			}
		}
	candidates:
		for _, id := range shortest {
			for _, p := range m.pairs {
				if _, ok := member[pairRef{p, id}]; !ok {
					continue candidates
				}
			}
			return true
		}
		return false
	}

	for start := 0; start < len(order); {
		size := pool[order[start]].Size()
		end := start
		for end < len(order) && pool[order[end]].Size() == size {
			end++
		}
		bucket := order[start:end]
		for n, i := range bucket {
			if n%256 == 0 && start > 0 && expired(done) {
				return keep, true
			}
			keep[i] = start == 0 || !subsumed(pool[i])
		}
		if end < len(order) {
			for _, i := range bucket {
				if keep[i] {
					index(i)
				}
			}
		}
		start = end
	}
	return keep, false
}

func expired(done <-chan struct{}) bool {
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}

//Personal.AI order the ending
