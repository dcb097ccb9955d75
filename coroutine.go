package co

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/coruntime/co/internal/corostack"
	"github.com/coruntime/co/internal/gid"
	"github.com/coruntime/co/internal/stackslot"
	"github.com/coruntime/co/internal/timerwheel"
	"github.com/coruntime/co/internal/waitx"
)

// Coroutine is a user task with its own logical stack slot, running on
// exactly one Scheduler for its entire lifetime.
type Coroutine struct {
	id uint64 // scheduler id in high 32 bits, slab index in low 32 bits

	sched *Scheduler
	slot  int
	stack *corostack.Coro
	fn    func()

	// waitx is non-nil only while the coroutine is suspended on a
	// synchronization primitive; cleared before the next user code runs.
	waitx *waitx.Waitx
	// timer is non-nil only while a deadline is armed for this coroutine.
	timer *timerwheel.Entry
	// timedOut latches whether the most recent suspension ended via the
	// timer winning the Waitx race, observed through Timeout().
	timedOut bool

	watermark stackslot.Watermark

	// started is false until the coroutine's first resume, distinguishing
	// the Start call (fresh trampoline) from later Resume calls.
	started bool

	// main is true for the synthetic coroutine (slab index 0) that stands
	// in for a scheduler's own loop goroutine, so Sched/Coroutine behave
	// uniformly whether called from inside a task or from the loop itself.
	main bool
}

// trampoline is what Coroutine.stack.Start runs: it establishes the current-
// coroutine registration and stack watermark, runs the user closure with a
// panic guard, then tears the registration down and terminates the
// underlying corostack.Coro. It must be the last thing to run on the
// coroutine's own goroutine.
func (c *Coroutine) trampoline() {
	registerCurrent(c)
	var probe int
	c.watermark = stackslot.Capture(uintptr(unsafe.Pointer(&probe)))

	func() {
		defer func() {
			if r := recover(); r != nil {
				c.sched.logger.Error("coroutine panicked", "coroutine", c.id, "panic", fmt.Sprint(r))
			}
		}()
		c.fn()
	}()

	unregisterCurrent()
	c.stack.Finish()
}

func makeCoroutineID(schedID, slabIdx int) uint64 {
	return uint64(uint32(schedID))<<32 | uint64(uint32(slabIdx))
}

// ID returns the coroutine's 64-bit identifier: scheduler id in the high 32
// bits, slab index in the low 32 bits.
func (c *Coroutine) ID() uint64 { return c.id }

// Sched returns the Scheduler that owns c.
func (c *Coroutine) Sched() *Scheduler { return c.sched }

func (c *Coroutine) String() string {
	if c.main {
		return fmt.Sprintf("co(sched=%d, main)", c.sched.id)
	}
	return fmt.Sprintf("co(sched=%d, slot=%d)", c.sched.id, c.slot)
}

// registry maps a goroutine id (see internal/gid) to the *Coroutine
// currently running on it. Every real OS thread that is either a scheduler
// loop or a corostack-backed coroutine goroutine has exactly one entry for
// its entire lifetime as that role.
var registry sync.Map // int64 -> *Coroutine

func registerCurrent(c *Coroutine) {
	registry.Store(gid.Current(), c)
}

func unregisterCurrent() {
	registry.Delete(gid.Current())
}

// Coroutine returns the Coroutine handle for the calling goroutine, or nil
// if the caller is neither a running coroutine nor a scheduler's own loop
// goroutine.
func Coroutine() *Coroutine {
	v, ok := registry.Load(gid.Current())
	if !ok {
		return nil
	}
	return v.(*Coroutine)
}

// CoroutineID returns the current coroutine's id. It is a checked-assertion
// misuse to call it outside a coroutine.
func CoroutineID() uint64 {
	c := requireCoroutine("CoroutineID")
	return c.id
}

// OnStack reports whether ptr plausibly belongs to the currently running
// coroutine's own stack region, the detection primitive a channel operation
// can use to decide whether a value needs copying off the stack before the
// coroutine yields. It is best-effort: see DESIGN.md Open Question OQ-1 for
// why an exact answer is neither available nor needed under Go's
// runtime-managed, movable goroutine stacks.
func OnStack(ptr unsafe.Pointer) bool {
	c := requireCoroutine("OnStack")
	return c.watermark.Contains(uintptr(ptr))
}
