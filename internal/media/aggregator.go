package media

import (
	"sync"
	"time"
)

// GroupID is the transport-supplied correlation key shared by attachments
// the user submitted in one multi-photo action. Empty means ungrouped.
type GroupID string

// Ref is an opaque transport handle that can re-send a received photo
// without re-uploading it.
type Ref string

// Timer is a resettable one-shot timer. The real implementation wraps
// time.AfterFunc; tests substitute one they fire by hand.
type Timer interface {
	Reset(d time.Duration) bool
	Stop() bool
}

// NewTimer starts a timer that calls fn after d.
type NewTimer func(d time.Duration, fn func()) Timer

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Reset(d time.Duration) bool { return r.t.Reset(d) }
func (r realTimer) Stop() bool                 { return r.t.Stop() }

func afterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

// SettleFunc receives a completed group in arrival order. It is called
// from the timer goroutine; callers serialize it against their own
// event handling.
type SettleFunc func(id GroupID, refs []Ref)

type group struct {
	refs  []Ref
	timer Timer
}

// Aggregator buffers grouped attachments until no new sibling has
// arrived for a quiescence window, then hands the whole group to the
// settle callback. The inbound stream carries no end-of-group marker,
// so quiescence is the only completion signal available.
type Aggregator struct {
	mu       sync.Mutex
	window   time.Duration
	groups   map[GroupID]*group
	settle   SettleFunc
	newTimer NewTimer
}

// NewAggregator creates an aggregator with the given quiescence window.
func NewAggregator(window time.Duration, settle SettleFunc) *Aggregator {
	return NewAggregatorWithTimer(window, settle, afterFunc)
}

// NewAggregatorWithTimer lets tests inject a fake timer source.
func NewAggregatorWithTimer(window time.Duration, settle SettleFunc, nt NewTimer) *Aggregator {
	return &Aggregator{
		window:   window,
		groups:   make(map[GroupID]*group),
		settle:   settle,
		newTimer: nt,
	}
}

// Submit records one attachment arrival. An ungrouped attachment is a
// group of one and settles immediately: the batch is returned with
// ok=true and the settle callback is not involved. A grouped attachment
// is buffered, the group's timer is (re)started, and nil/false is
// returned; the group settles later through the callback.
func (a *Aggregator) Submit(id GroupID, ref Ref) ([]Ref, bool) {
	if id == "" {
		return []Ref{ref}, true
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	g, ok := a.groups[id]
	if !ok {
		g = &group{}
		g.timer = a.newTimer(a.window, func() { a.fire(id) })
		a.groups[id] = g
	} else {
		g.timer.Reset(a.window)
	}

	g.refs = append(g.refs, ref)

	return nil, false
}

func (a *Aggregator) fire(id GroupID) {
	a.mu.Lock()
	g, ok := a.groups[id]
	if ok {
		delete(a.groups, id)
	}
	a.mu.Unlock()

	if !ok {
		// group was cleared while the fire was in flight
		return
	}

	a.settle(id, g.refs)
}

// Pending reports how many groups are still buffering.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.groups)
}

// Clear drops all buffered groups and stops their timers. Used on
// session reset so a stale timer cannot settle into a fresh collection.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, g := range a.groups {
		g.timer.Stop()
		delete(a.groups, id)
	}
}
