package timerwheel_test

import (
	"testing"
	"time"

	"github.com/coruntime/co/internal/timerwheel"
	"pgregory.net/rapid"
)

func TestFireInDeadlineOrder(t *testing.T) {
	w := timerwheel.New()
	base := time.Unix(0, 0)
	w.Add(base.Add(30*time.Millisecond), "c")
	w.Add(base.Add(10*time.Millisecond), "a")
	w.Add(base.Add(20*time.Millisecond), "b")

	fired, _, hasNext := w.CheckTimeout(base.Add(25 * time.Millisecond))
	if hasNext != true {
		t.Fatalf("expected a next timer (c) still armed")
	}
	if len(fired) != 2 || fired[0].Payload != "a" || fired[1].Payload != "b" {
		t.Fatalf("fired = %+v, want [a b]", fired)
	}
}

func TestTiesBreakFIFO(t *testing.T) {
	w := timerwheel.New()
	when := time.Unix(0, 0).Add(time.Second)
	w.Add(when, "first")
	w.Add(when, "second")
	w.Add(when, "third")

	fired, _, hasNext := w.CheckTimeout(when)
	if hasNext {
		t.Fatalf("expected no timers remaining")
	}
	if len(fired) != 3 {
		t.Fatalf("fired = %+v, want 3 entries", fired)
	}
	for i, want := range []string{"first", "second", "third"} {
		if fired[i].Payload != want {
			t.Fatalf("fired[%d] = %v, want %v", i, fired[i].Payload, want)
		}
	}
}

func TestRemoveCancelsTimer(t *testing.T) {
	w := timerwheel.New()
	base := time.Unix(0, 0)
	e := w.Add(base.Add(10*time.Millisecond), "a")
	w.Remove(e)

	fired, _, hasNext := w.CheckTimeout(base.Add(time.Second))
	if len(fired) != 0 || hasNext {
		t.Fatalf("expected no timers after Remove, got fired=%v hasNext=%v", fired, hasNext)
	}
}

func TestWaitNeverRegresses(t *testing.T) {
	w := timerwheel.New()
	base := time.Unix(0, 0)
	w.Add(base.Add(100*time.Millisecond), "a")

	now := base.Add(40 * time.Millisecond)
	fired, wait, hasNext := w.CheckTimeout(now)
	if len(fired) != 0 || !hasNext {
		t.Fatalf("expected the timer to still be pending")
	}
	if now.Add(wait).After(base.Add(100 * time.Millisecond)) {
		t.Fatalf("wait %v overshoots deadline", wait)
	}
}

// TestCheckTimeoutInvariants is a randomized model check of the two
// invariants CheckTimeout must never violate: fired entries come out in
// non-decreasing deadline order, and the reported wait never lets now+wait
// overshoot the earliest surviving deadline.
func TestCheckTimeoutInvariants(t *testing.T) {
	rapid.Check(t, checkTimeoutInvariants)
}

type pendingTimer struct {
	e        *timerwheel.Entry
	deadline time.Time
}

func checkTimeoutInvariants(t *rapid.T) {
	w := timerwheel.New()
	base := time.Unix(0, 0)
	now := base

	var pending []pendingTimer
	var lastFiredDeadline time.Time
	haveFired := false

	steps := rapid.IntRange(1, 40).Draw(t, "steps")
	for i := 0; i < steps; i++ {
		switch rapid.IntRange(0, 2).Draw(t, "op") {
		case 0: // add
			offsetMs := rapid.IntRange(0, 500).Draw(t, "offsetMs")
			deadline := now.Add(time.Duration(offsetMs) * time.Millisecond)
			e := w.Add(deadline, offsetMs)
			pending = append(pending, pendingTimer{e: e, deadline: deadline})

		case 1: // remove a random still-pending entry
			if len(pending) == 0 {
				continue
			}
			idx := rapid.IntRange(0, len(pending)-1).Draw(t, "idx")
			w.Remove(pending[idx].e)
			pending = append(pending[:idx], pending[idx+1:]...)

		case 2: // advance time and check
			advanceMs := rapid.IntRange(0, 200).Draw(t, "advanceMs")
			now = now.Add(time.Duration(advanceMs) * time.Millisecond)

			fired, wait, hasNext := w.CheckTimeout(now)
			for _, e := range fired {
				if haveFired && e.Deadline.Before(lastFiredDeadline) {
					t.Fatalf("fired entry deadline %v before previously fired %v", e.Deadline, lastFiredDeadline)
				}
				lastFiredDeadline = e.Deadline
				haveFired = true

				n := len(pending)
				for j, p := range pending {
					if p.e == e {
						pending = append(pending[:j], pending[j+1:]...)
						break
					}
				}
				if len(pending) == n {
					t.Fatalf("fired entry was not among the pending set")
				}
			}
			if hasNext {
				if wait < 0 {
					t.Fatalf("wait must be non-negative, got %v", wait)
				}
				if now.Add(wait).After(earliestDeadline(pending)) {
					t.Fatalf("now+wait %v overshoots earliest pending deadline %v", now.Add(wait), earliestDeadline(pending))
				}
			} else if len(pending) != 0 {
				t.Fatalf("hasNext=false but %d entries still pending", len(pending))
			}
		}
	}
}

func earliestDeadline(pending []pendingTimer) time.Time {
	earliest := pending[0].deadline
	for _, p := range pending[1:] {
		if p.deadline.Before(earliest) {
			earliest = p.deadline
		}
	}
	return earliest
}
