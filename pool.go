package co

import (
	"sync"

	"github.com/coruntime/co/internal/waitx"
)

// Pool is a per-scheduler free-list with optional creation/destruction
// callbacks and an optional capacity cap. Get and Put must be called from
// inside a coroutine and touch only local[c.sched.id], the slice belonging
// to the calling coroutine's own scheduler. Distinct schedulers only ever
// write to distinct indices of local, which the Go memory model permits
// without synchronization; sizing local to SchedNum() up front (rather than
// keying a shared map by scheduler id) is what makes that true, since
// concurrent writes to a shared map, even at disjoint keys, are a data
// race.
type Pool[T any] struct {
	newFn     func() T
	destroyFn func(T)
	capacity  int // 0 means unbounded

	mu         sync.Mutex
	checkedOut int
	waitq      waitx.Queue

	local [][]T // indexed by scheduler id
}

// NewPool builds a Pool. newFn materializes a fresh value when a
// scheduler's local free list is empty. destroyFn, if non-nil, is invoked
// on every value dropped by Clear. capacity <= 0 means unbounded; otherwise
// Get blocks until fewer than capacity values are checked out, enforced
// with the same FIFO wait-queue-and-Yield handoff Mutex uses, since Get and
// Put are coroutine-only and a scheduler can only ever run one coroutine at
// a time: a call that blocked the scheduler's own OS thread outright (e.g.
// a raw semaphore.Acquire) would freeze every other coroutine pinned to it,
// including whichever one needs to run again to Put and release capacity.
func NewPool[T any](newFn func() T, destroyFn func(T), capacity int) *Pool[T] {
	return &Pool[T]{newFn: newFn, destroyFn: destroyFn, capacity: capacity, local: make([][]T, SchedNum())}
}

// acquire enforces the capacity cap for c, blocking cooperatively (enqueue
// and Yield) if the cap is already reached, exactly like Mutex.Lock's
// coroutine path.
func (p *Pool[T]) acquire(c *Coroutine) {
	if p.capacity <= 0 {
		return
	}
	p.mu.Lock()
	if p.checkedOut < p.capacity {
		p.checkedOut++
		p.mu.Unlock()
		return
	}
	w := waitx.New(c)
	p.waitq.PushBack(w)
	c.waitx = w
	p.mu.Unlock()
	Yield()
}

// release hands the freed capacity slot directly to the next FIFO waiter,
// if any, rather than letting checkedOut drop and a fresh Get race in.
func (p *Pool[T]) release() {
	if p.capacity <= 0 {
		return
	}
	p.mu.Lock()
	w := p.waitq.PopFront()
	if w == nil {
		p.checkedOut--
		p.mu.Unlock()
		return
	}
	w.TryReady()
	p.mu.Unlock()
	Resume(w.Coroutine.(*Coroutine))
}

// Get removes a value from the calling coroutine's scheduler's free list,
// or creates one with newFn if the list is empty.
func (p *Pool[T]) Get() T {
	c := requireCoroutine("Pool.Get")
	p.acquire(c)
	list := p.local[c.sched.id]
	if n := len(list); n > 0 {
		v := list[n-1]
		p.local[c.sched.id] = list[:n-1]
		return v
	}
	return p.newFn()
}

// Put returns v to the calling coroutine's scheduler's free list.
func (p *Pool[T]) Put(v T) {
	c := requireCoroutine("Pool.Put")
	p.local[c.sched.id] = append(p.local[c.sched.id], v)
	p.release()
}

// Clear drains every scheduler's local free list, fanning out one coroutine
// per scheduler and waiting for all of them via a WaitGroup.
func (p *Pool[T]) Clear() {
	var wg WaitGroup
	for _, s := range Scheds() {
		wg.Add(1)
		s := s
		GoOn(s, func() {
			defer wg.Done()
			list := p.local[s.id]
			if p.destroyFn != nil {
				for _, v := range list {
					p.destroyFn(v)
				}
			}
			p.local[s.id] = nil
		})
	}
	wg.Wait()
}
