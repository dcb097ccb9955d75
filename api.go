package co

import "time"

// Yield suspends the calling coroutine and switches back to its scheduler's
// loop. Before yielding, the coroutine must have armed a timer, registered
// an I/O interest, or enqueued a Waitx on some primitive, otherwise it will
// never be resumed.
func Yield() {
	c := requireCoroutine("Yield")
	c.stack.Yield()
}

// Sleep suspends the calling coroutine for at least d.
func Sleep(d time.Duration) {
	requireCoroutine("Sleep")
	if d <= 0 {
		return
	}
	AddTimer(d)
	Yield()
}

// Resume wakes coroutine c from any goroutine. It always posts c to its
// owning scheduler's mailbox and signals that scheduler's poller; it never
// jumps directly on the calling goroutine, even when the caller happens to
// be a coroutine on the same scheduler as c.
func Resume(c *Coroutine) {
	if c == nil {
		fatalf("Resume called with a nil coroutine")
	}
	c.sched.mailbox.postReadyTask(c)
	c.sched.poller.Signal()
}
