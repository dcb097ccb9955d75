// Package timerwheel implements an ordered map from absolute deadline to
// payload, with ties broken by insertion order, backed by container/heap.
package timerwheel

import (
	"container/heap"
	"time"
)

// Entry is a single armed timer. The zero value is not meaningful; obtain
// one from Wheel.Add. A live Entry is owned by exactly one Wheel until it is
// removed or fires.
type Entry struct {
	Deadline time.Time
	Payload  any

	seq int64
	pos int // index in the heap, -1 when not stored
}

type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if !h[i].Deadline.Equal(h[j].Deadline) {
		return h[i].Deadline.Before(h[j].Deadline)
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].pos = i
	h[j].pos = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*Entry)
	e.pos = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	e.pos = -1
	return e
}

// Wheel is a per-scheduler ordered map of pending deadlines: the timer
// manager a Scheduler owns.
type Wheel struct {
	h       entryHeap
	nextSeq int64
}

// New returns an empty Wheel.
func New() *Wheel {
	return &Wheel{}
}

// Add arms a timer at deadline carrying payload (typically a *Coroutine),
// returning a handle used to cancel it with Remove. Ties at an identical
// deadline fire in the order they were added.
func (w *Wheel) Add(deadline time.Time, payload any) *Entry {
	e := &Entry{Deadline: deadline, Payload: payload, seq: w.nextSeq}
	w.nextSeq++
	heap.Push(&w.h, e)
	return e
}

// Remove cancels a previously armed timer. It is a no-op if e has already
// fired (its pos is -1).
func (w *Wheel) Remove(e *Entry) {
	if e == nil || e.pos == -1 {
		return
	}
	heap.Remove(&w.h, e.pos)
}

// Len reports how many timers are currently armed.
func (w *Wheel) Len() int {
	return len(w.h)
}

// CheckTimeout pops every entry whose deadline has passed relative to now,
// in deadline (then insertion) order, and reports how long to wait for the
// next pending deadline. hasNext is false when no timers remain armed, in
// which case the poller should wait indefinitely. The returned wait is
// always >= 0 and satisfies now+wait <= earliest remaining deadline: a
// caller that sleeps for wait never wakes past a deadline that was already
// due.
func (w *Wheel) CheckTimeout(now time.Time) (fired []*Entry, wait time.Duration, hasNext bool) {
	for w.h.Len() > 0 {
		next := w.h[0]
		if next.Deadline.After(now) {
			break
		}
		fired = append(fired, heap.Pop(&w.h).(*Entry))
	}
	if w.h.Len() == 0 {
		return fired, 0, false
	}
	d := w.h[0].Deadline.Sub(now)
	if d < 0 {
		d = 0
	}
	return fired, d, true
}
