package opstate

import "sync"

// Tracker guards Markers with a mutex so check-and-begin is atomic across goroutines.
type Tracker struct {
	mu      sync.Mutex
	markers Markers
	onEvent func(kind Kind, state State)
}

type TrackerOption func(*Tracker)

// WithObserver registers a callback run after every transition, outside the lock.
func WithObserver(fn func(kind Kind, state State)) TrackerOption {
	return func(t *Tracker) {
		t.onEvent = fn
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// TryBegin marks (id, kind) Pending. It returns false without changes when the pair is
// already Pending; the caller must then skip the request.
func (t *Tracker) TryBegin(id string, kind Kind) bool {
	t.mu.Lock()
	next, ok := t.markers.Begin(id, kind)
	if ok {
		t.markers = next
	}
	t.mu.Unlock()

	if ok {
		t.notify(kind, Pending)
	}
	return ok
}

// Finish returns (id, kind) to Idle. Call it exactly once per successful TryBegin,
// whether the operation succeeded or failed.
func (t *Tracker) Finish(id string, kind Kind) {
	t.mu.Lock()
	t.markers = t.markers.End(id, kind)
	t.mu.Unlock()

	t.notify(kind, Idle)
}

// Snapshot returns the current immutable markers.
func (t *Tracker) Snapshot() Markers {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.markers
}

func (t *Tracker) IsPending(id string, kind Kind) bool {
	return t.Snapshot().IsPending(id, kind)
}

func (t *Tracker) notify(kind Kind, state State) {
	if t.onEvent != nil {
		t.onEvent(kind, state)
	}
}
