package opstate

import "sort"

// Kind is a per-row operation that shows its own pending indicator.
type Kind string

const (
	KindSync           Kind = "sync"
	KindDelete         Kind = "delete"
	KindToggleReminder Kind = "toggle-reminder"
)

type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

type key struct {
	id   string
	kind Kind
}

// Markers is an immutable set of pending (id, kind) pairs. Absent pairs are Idle.
// Begin and End return a new value and leave the receiver untouched.
type Markers struct {
	pending map[key]struct{}
}

func (m Markers) State(id string, kind Kind) State {
	if _, ok := m.pending[key{id: id, kind: kind}]; ok {
		return Pending
	}
	return Idle
}

func (m Markers) IsPending(id string, kind Kind) bool {
	return m.State(id, kind) == Pending
}

// Begin moves (id, kind) from Idle to Pending. ok is false when it is already Pending.
func (m Markers) Begin(id string, kind Kind) (next Markers, ok bool) {
	if m.IsPending(id, kind) {
		return m, false
	}
	next = m.clone(len(m.pending) + 1)
	next.pending[key{id: id, kind: kind}] = struct{}{}
	return next, true
}

// End returns (id, kind) to Idle. Ending an idle pair is a no-op.
func (m Markers) End(id string, kind Kind) Markers {
	if !m.IsPending(id, kind) {
		return m
	}
	next := m.clone(len(m.pending))
	delete(next.pending, key{id: id, kind: kind})
	return next
}

// IDs returns the sorted ids with a pending operation of the given kind.
func (m Markers) IDs(kind Kind) []string {
	ids := make([]string, 0)
	for k := range m.pending {
		if k.kind == kind {
			ids = append(ids, k.id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (m Markers) Len() int {
	return len(m.pending)
}

func (m Markers) clone(capacity int) Markers {
	out := Markers{pending: make(map[key]struct{}, capacity)}
	for k := range m.pending {
		out.pending[k] = struct{}{}
	}
	return out
}
