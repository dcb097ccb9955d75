package co

import (
	"sync"

	"github.com/coruntime/co/internal/waitx"
)

// Mutex states.
const (
	mutexFree uint8 = iota
	mutexHeld
	mutexReleasedToThread
)

// Mutex is a non-reentrant lock with strict FIFO handoff and no spinning,
// shared between coroutines (resumed via their scheduler's mailbox) and OS
// threads (woken on a condition variable).
type Mutex struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state uint8
	waitq waitx.Queue
}

// TryLock acquires the mutex without blocking, reporting whether it
// succeeded.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == mutexFree {
		m.state = mutexHeld
		return true
	}
	return false
}

// Lock acquires the mutex, blocking the caller (coroutine or OS thread)
// until it does. Coroutines block by enqueuing a Waitx and yielding; the
// unlocker resumes them through their scheduler's mailbox. OS threads block
// on a condition variable.
func (m *Mutex) Lock() {
	m.mu.Lock()

	if m.state == mutexFree {
		m.state = mutexHeld
		m.mu.Unlock()
		return
	}

	if c := Coroutine(); c != nil {
		w := waitx.New(c)
		m.waitq.PushBack(w)
		c.waitx = w
		m.mu.Unlock()
		Yield()
		return
	}

	if m.cond == nil {
		m.cond = sync.NewCond(&m.mu)
	}
	w := waitx.New(nil)
	m.waitq.PushBack(w)
	for w.State() != waitx.Ready {
		m.cond.Wait()
	}
	// Contractually the lock stays "held" across the coroutine handoff path;
	// for a thread waiter we observe the released-to-thread marker and set
	// it back to held ourselves.
	m.state = mutexHeld
	m.mu.Unlock()
}

// Unlock releases the mutex, handing it directly to the next FIFO waiter if
// any, rather than letting a new locker race in.
func (m *Mutex) Unlock() {
	m.mu.Lock()

	w := m.waitq.PopFront()
	if w == nil {
		m.state = mutexFree
		m.mu.Unlock()
		return
	}
	w.TryReady()

	if w.IsThreadWaiter() {
		m.state = mutexReleasedToThread
		m.mu.Unlock()
		m.cond.Broadcast()
		return
	}

	m.mu.Unlock()
	Resume(w.Coroutine.(*Coroutine))
}
