package matching

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// LabelID is the interned identifier of an atom label.
type LabelID int32

// Reserved wildcard labels. They are present in every registry, including
// one that has just been Reset.
const (
	// LabelAny ("*") accepts every target atom.
	LabelAny LabelID = 0
	// LabelHeavy ("R") accepts every target atom except hydrogen.
	LabelHeavy LabelID = 1
)

const (
	anyLabelName      = "*"
	heavyLabelName    = "R"
	hydrogenLabelName = "H"
)

// LabelRegistry interns symbolic atom labels to stable integer identifiers and
// holds R-group style wildcard bindings.
//
// Identifiers are allocated monotonically and never reused until Reset. Intern
// and Bind are serialized; Resolve reads an atomically published snapshot and
// takes no lock.
//
// A registry returned by Session is layered over its parent: it sees every
// label and binding the parent held when the session was opened, and keeps
// its own additions to itself.
type LabelRegistry struct {
	parent *LabelRegistry
	// base is the first identifier this registry allocates.
	base LabelID

	mu       sync.RWMutex
	ids      map[string]LabelID
	bindings map[LabelID]map[LabelID]struct{}
	// names[i] is the label of identifier base+i.
	names atomic.Pointer[[]string]
}

// NewLabelRegistry returns a registry holding only the reserved labels.
func NewLabelRegistry() *LabelRegistry {
	r := &LabelRegistry{}
	r.reset()
	return r
}

// Session opens a registry layered over r. Labels and bindings added to the
// session are dropped with it, so a long-lived parent does not grow with every
// caller. Resetting r invalidates its open sessions.
func (r *LabelRegistry) Session() *LabelRegistry {
	s := &LabelRegistry{parent: r, base: LabelID(r.Size())}
	s.reset()
	return s
}

func (r *LabelRegistry) reset() {
	var names []string
	r.ids = make(map[string]LabelID)
	if r.parent == nil {
		names = []string{anyLabelName, heavyLabelName}
		r.ids[anyLabelName] = LabelAny
		r.ids[heavyLabelName] = LabelHeavy
	}
	r.bindings = make(map[LabelID]map[LabelID]struct{})
	r.names.Store(&names)
}

// Reset drops every caller label and binding. It is the explicit session
// boundary: identifiers handed out before Reset must not be used after it.
func (r *LabelRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// Intern returns the identifier of label, allocating the next free one if the
// label has not been seen.
func (r *LabelRegistry) Intern(label string) LabelID {
	if id, ok := r.lookup(label); ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.internLocked(label)
}

// lookup finds label here or in the part of the parent this session sees.
func (r *LabelRegistry) lookup(label string) (LabelID, bool) {
	r.mu.RLock()
	id, ok := r.ids[label]
	r.mu.RUnlock()
	if ok {
		return id, true
	}
	return r.inherited(label)
}

func (r *LabelRegistry) inherited(label string) (LabelID, bool) {
	if r.parent == nil {
		return 0, false
	}
	id, ok := r.parent.lookup(label)
	return id, ok && id < r.base
}

func (r *LabelRegistry) internLocked(label string) LabelID {
	if id, ok := r.ids[label]; ok {
		return id
	}
	if id, ok := r.inherited(label); ok {
		return id
	}
	old := *r.names.Load()
	id := r.base + LabelID(len(old))
	// Appending past len(old) never touches what earlier snapshots can see.
	names := append(old, label)
	r.ids[label] = id
	r.names.Store(&names)
	return id
}

// Resolve returns the label for id. It is the inverse of Intern.
func (r *LabelRegistry) Resolve(id LabelID) (string, bool) {
	if id < r.base {
		if r.parent == nil || id < 0 {
			return "", false
		}
		return r.parent.Resolve(id)
	}
	names := *r.names.Load()
	i := int(id - r.base)
	if i >= len(names) {
		return "", false
	}
	return names[i], true
}

// Size reports the number of distinct labels held, reserved ones included.
func (r *LabelRegistry) Size() int {
	return int(r.base) + len(*r.names.Load())
}

// Bind declares label as a wildcard accepting the given member labels, as in
// a Markush R-group definition (R1 = C, N or O). A binding without members
// accepts any atom. Rebinding replaces the previous member set. The reserved
// labels cannot be rebound.
func (r *LabelRegistry) Bind(label string, members ...string) (LabelID, error) {
	if label == anyLabelName || label == heavyLabelName {
		return 0, fmt.Errorf("label %q is reserved", label)
	}
	if label == "" {
		return 0, fmt.Errorf("label must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.internLocked(label)
	set := make(map[LabelID]struct{}, len(members))
	for _, m := range members {
		set[r.internLocked(m)] = struct{}{}
	}
	r.bindings[id] = set
	return id, nil
}

// IsWildcard reports whether id is a reserved wildcard or a bound label.
func (r *LabelRegistry) IsWildcard(id LabelID) bool {
	if id == LabelAny || id == LabelHeavy {
		return true
	}
	_, ok := r.binding(id)
	return ok
}

// binding returns the member set bound to id, a session's own binding
// shadowing the parent's.
func (r *LabelRegistry) binding(id LabelID) (map[LabelID]struct{}, bool) {
	r.mu.RLock()
	set, ok := r.bindings[id]
	r.mu.RUnlock()
	if ok || r.parent == nil || id >= r.base {
		return set, ok
	}
	return r.parent.binding(id)
}

// Accepts reports whether a query atom labelled query may pair with a target
// atom labelled target.
func (r *LabelRegistry) Accepts(query, target LabelID) bool {
	if query == target || query == LabelAny {
		return true
	}
	if query == LabelHeavy {
		name, ok := r.Resolve(target)
		return ok && name != hydrogenLabelName
	}

	set, ok := r.binding(query)
	if !ok {
		return false
	}
	if len(set) == 0 {
		return true
	}
	_, ok = set[target]
	return ok
}

//Personal.AI order the ending
