package co

import (
	"sync"
	"time"

	"github.com/coruntime/co/internal/waitx"
)

// Event is a coroutine/thread-aware gate: Wait blocks until Signal wakes
// every waiter currently queued, or the caller's deadline elapses.
// ManualReset controls whether a Signal with no waiters
// present latches until Reset (true) or is consumed by the next Wait call
// that observes it (false).
type Event struct {
	mu          sync.Mutex
	cond        *sync.Cond
	signaled    bool
	manualReset bool
	waitq       waitx.Queue
}

// NewEvent returns an Event with the given reset behavior.
func NewEvent(manualReset bool) *Event {
	return &Event{manualReset: manualReset}
}

// Reset clears a latched signal without waking anyone.
func (e *Event) Reset() {
	e.mu.Lock()
	e.signaled = false
	e.mu.Unlock()
}

// Wait blocks until Signal wakes the caller or timeout elapses. timeout < 0
// waits indefinitely; timeout == 0 polls without blocking. It reports false
// if it returned because of a timeout.
func (e *Event) Wait(timeout time.Duration) bool {
	e.mu.Lock()

	if e.signaled {
		if !e.manualReset {
			e.signaled = false
		}
		e.mu.Unlock()
		return true
	}
	if timeout == 0 {
		e.mu.Unlock()
		return false
	}

	if c := Coroutine(); c != nil {
		w := waitx.New(c)
		e.waitq.PushBack(w)
		c.waitx = w
		if timeout > 0 {
			e.mu.Unlock()
			AddTimer(timeout)
			Yield()
		} else {
			e.mu.Unlock()
			Yield()
		}
		return !Timeout()
	}

	if e.cond == nil {
		e.cond = sync.NewCond(&e.mu)
	}
	w := waitx.New(nil)
	e.waitq.PushBack(w)

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for w.State() == waitx.Wait {
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}
			t := time.AfterFunc(remaining, func() {
				e.mu.Lock()
				e.cond.Broadcast()
				e.mu.Unlock()
			})
			e.cond.Wait()
			t.Stop()
		} else {
			e.cond.Wait()
		}
	}
	if w.State() != waitx.Ready {
		w.TryTimeout()
		e.waitq.Remove(w)
		e.mu.Unlock()
		return false
	}
	e.mu.Unlock()
	return true
}

// Signal wakes every waiter currently queued. If none are queued (or only
// waiters that already timed out), the signal latches (visible to the next
// Wait call) instead.
func (e *Event) Signal() {
	e.mu.Lock()

	if e.waitq.Empty() {
		e.signaled = true
		e.mu.Unlock()
		return
	}

	var toResume []*Coroutine
	woke := false
	for {
		w := e.waitq.PopFront()
		if w == nil {
			break
		}
		if !w.TryReady() {
			continue // lost the race to a timeout; its owner already discarded it
		}
		woke = true
		if !w.IsThreadWaiter() {
			toResume = append(toResume, w.Coroutine.(*Coroutine))
		}
	}
	if !woke {
		e.signaled = true
	}
	if e.cond != nil {
		e.cond.Broadcast()
	}
	e.mu.Unlock()

	for _, c := range toResume {
		Resume(c)
	}
}
