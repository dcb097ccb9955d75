// Package corostack provides the two stack-switch primitives a stackful
// coroutine runtime needs: make_context and jump, in the terminology of the
// original C++ design this package replaces. The C++ implementation needs
// architecture-specific assembly for those two operations; Go already ships
// a cheap, stackful coroutine primitive as the implementation detail behind
// iter.Pull (runtime.newcoro/coroswitch/coroexit). This package wraps that
// primitive behind a build tag, with a portable fallback for builds that
// cannot or should not linkname into the runtime.
package corostack

// Coro is a single stackful coroutine. The zero value is not usable; build
// one with New. A Coro must only ever be driven (Start/Resume) from a single
// goroutine at a time: the scheduler thread that owns it.
type Coro struct {
	impl     coroImpl
	finished bool
}

// New allocates an unstarted coroutine. Its entry function is supplied
// later, to Start, and runs on the coroutine's own stack.
func New() *Coro {
	return &Coro{}
}

// Start begins running entry on the coroutine's stack. It runs until entry's
// first call to Yield, or until entry returns (in which case Finish must
// still be called from inside entry, see Finish's doc comment). Start must
// be called exactly once per Coro, from the thread that will own it.
func (c *Coro) Start(entry func()) {
	c.impl.Start(entry)
}

// Resume continues a coroutine previously parked by Yield, running it until
// its next Yield or its call to Finish. Resume must be called from outside
// the coroutine.
func (c *Coro) Resume() {
	c.impl.Resume()
}

// Yield suspends the calling coroutine, switching back to whichever
// goroutine called Start or Resume. It must be called from inside the
// coroutine.
func (c *Coro) Yield() {
	c.impl.Yield()
}

// Finish terminates the calling coroutine, switching back to whichever
// goroutine called Start or Resume and marking the Coro as done. It must be
// called from inside the coroutine as the very last thing it does; the
// coroutine's entry function must not return without calling Finish first,
// mirroring the checked-assertion discipline of the underlying primitive.
func (c *Coro) Finish() {
	c.finished = true
	c.impl.Finish()
}

// Done reports whether the coroutine has called Finish. Safe to call from
// the owning goroutine right after Start or Resume returns, to distinguish
// "yielded" from "terminated": the two backends hand control back to the
// caller identically in both cases.
func (c *Coro) Done() bool {
	return c.finished
}
