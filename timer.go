package co

import "time"

// AddTimer arms a deadline for the calling coroutine at now+d, observable
// after the coroutine's next resume via Timeout. The caller must yield
// (directly or through a primitive's wait) before returning control to the
// scheduler; arming a timer without yielding leaves the timer stranded and
// is a programmer error.
func AddTimer(d time.Duration) {
	c := requireCoroutine("AddTimer")
	if c.timer != nil {
		c.sched.timers.Remove(c.timer)
	}
	c.timer = c.sched.timers.Add(time.Now().Add(d), c)
}

// Timeout reports whether the calling coroutine's most recent suspension
// ended because its armed timer fired, as opposed to being signaled by a
// primitive or by Resume.
func Timeout() bool {
	c := requireCoroutine("Timeout")
	return c.timedOut
}
