package media

import (
	"sync"
	"testing"
	"time"
)

// fakeTimer never fires on its own; tests fire it through the source.
type fakeTimer struct {
	mu      sync.Mutex
	fn      func()
	resets  int
	stopped bool
}

func (f *fakeTimer) Reset(d time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return !f.stopped
}

func (f *fakeTimer) Stop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	was := !f.stopped
	f.stopped = true
	return was
}

func (f *fakeTimer) fire() {
	f.mu.Lock()
	fn := f.fn
	stopped := f.stopped
	f.mu.Unlock()
	if !stopped {
		fn()
	}
}

type fakeTimerSource struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeTimerSource) newTimer(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeTimerSource) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

type recorder struct {
	mu      sync.Mutex
	settled [][]Ref
	ids     []GroupID
}

func (r *recorder) settle(id GroupID, refs []Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	r.settled = append(r.settled, refs)
}

func TestSubmitUngroupedSettlesImmediately(t *testing.T) {
	src := &fakeTimerSource{}
	rec := &recorder{}
	a := NewAggregatorWithTimer(time.Second, rec.settle, src.newTimer)

	batch, ok := a.Submit("", "photo-1")
	if !ok {
		t.Fatal("ungrouped submit should settle immediately")
	}

	if len(batch) != 1 || batch[0] != "photo-1" {
		t.Errorf("batch mismatch: %v", batch)
	}

	if len(rec.settled) != 0 {
		t.Error("settle callback should not run for ungrouped submits")
	}

	if a.Pending() != 0 {
		t.Errorf("expected 0 pending groups, got %d", a.Pending())
	}
}

func TestGroupSettlesOnceWithAllRefsInOrder(t *testing.T) {
	src := &fakeTimerSource{}
	rec := &recorder{}
	a := NewAggregatorWithTimer(time.Second, rec.settle, src.newTimer)

	for _, ref := range []Ref{"a", "b", "c"} {
		if batch, ok := a.Submit("g1", ref); ok {
			t.Fatalf("grouped submit settled early with %v", batch)
		}
	}

	if a.Pending() != 1 {
		t.Fatalf("expected 1 pending group, got %d", a.Pending())
	}

	src.last().fire()

	if len(rec.settled) != 1 {
		t.Fatalf("expected exactly 1 settle, got %d", len(rec.settled))
	}

	got := rec.settled[0]
	want := []Ref{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d refs, got %d", len(want), len(got))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ref %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if a.Pending() != 0 {
		t.Errorf("group should be removed after settling, pending=%d", a.Pending())
	}
}

func TestEachArrivalResetsTimer(t *testing.T) {
	src := &fakeTimerSource{}
	rec := &recorder{}
	a := NewAggregatorWithTimer(time.Second, rec.settle, src.newTimer)

	a.Submit("g1", "a")
	a.Submit("g1", "b")
	a.Submit("g1", "c")

	timer := src.last()
	if timer.resets != 2 {
		t.Errorf("expected 2 resets (one per follow-up arrival), got %d", timer.resets)
	}
}

func TestSeparateBurstsSettleSeparately(t *testing.T) {
	src := &fakeTimerSource{}
	rec := &recorder{}
	a := NewAggregatorWithTimer(time.Second, rec.settle, src.newTimer)

	a.Submit("g1", "a")
	first := src.last()
	first.fire()

	// second burst reuses the same group id after a full gap
	a.Submit("g1", "b")
	second := src.last()
	if second == first {
		t.Fatal("expected a fresh timer for the second burst")
	}
	second.fire()

	if len(rec.settled) != 2 {
		t.Fatalf("expected 2 settles, got %d", len(rec.settled))
	}

	if rec.settled[0][0] != "a" || rec.settled[1][0] != "b" {
		t.Errorf("bursts merged: %v", rec.settled)
	}
}

func TestIndependentGroupsTrackedIndependently(t *testing.T) {
	src := &fakeTimerSource{}
	rec := &recorder{}
	a := NewAggregatorWithTimer(time.Second, rec.settle, src.newTimer)

	a.Submit("g1", "a1")
	g1Timer := src.last()
	a.Submit("g2", "b1")
	g2Timer := src.last()
	a.Submit("g1", "a2")

	// g2 fires first even though g1 started first
	g2Timer.fire()
	g1Timer.fire()

	if len(rec.settled) != 2 {
		t.Fatalf("expected 2 settles, got %d", len(rec.settled))
	}

	if rec.ids[0] != "g2" || rec.ids[1] != "g1" {
		t.Errorf("settle order should follow timer expiry: %v", rec.ids)
	}

	if len(rec.settled[1]) != 2 {
		t.Errorf("g1 should carry both refs, got %v", rec.settled[1])
	}
}

func TestClearDropsPendingGroups(t *testing.T) {
	src := &fakeTimerSource{}
	rec := &recorder{}
	a := NewAggregatorWithTimer(time.Second, rec.settle, src.newTimer)

	a.Submit("g1", "a")
	timer := src.last()
	a.Clear()

	if a.Pending() != 0 {
		t.Errorf("expected 0 pending after Clear, got %d", a.Pending())
	}

	// a fire that raced Clear must not settle
	timer.stopped = false
	timer.fire()

	if len(rec.settled) != 0 {
		t.Error("cleared group must not settle")
	}
}

func TestDuplicateRefsAreKept(t *testing.T) {
	src := &fakeTimerSource{}
	rec := &recorder{}
	a := NewAggregatorWithTimer(time.Second, rec.settle, src.newTimer)

	a.Submit("g1", "same")
	a.Submit("g1", "same")
	src.last().fire()

	if len(rec.settled[0]) != 2 {
		t.Errorf("duplicates must be preserved, got %v", rec.settled[0])
	}
}

func TestRealTimerFires(t *testing.T) {
	done := make(chan []Ref, 1)
	a := NewAggregator(10*time.Millisecond, func(id GroupID, refs []Ref) {
		done <- refs
	})

	a.Submit("g1", "a")
	a.Submit("g1", "b")

	select {
	case refs := <-done:
		if len(refs) != 2 {
			t.Errorf("expected 2 refs, got %v", refs)
		}
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}
