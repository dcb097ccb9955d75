//go:build !linkname

package corostack

// coroImpl is the portable fallback: it parks a real goroutine on an
// unbuffered channel handoff instead of linknaming into the runtime's own
// coroutine primitive. It costs one extra OS-schedulable goroutine per
// coroutine but has zero runtime-internal dependency, mirroring the
// teacher's own linkname/no-linkname split.
type coroImpl struct {
	baton chan struct{}
}

func (c *coroImpl) Start(entry func()) {
	c.baton = make(chan struct{})
	go entry()
	<-c.baton
}

func (c *coroImpl) Resume() {
	c.baton <- struct{}{}
	<-c.baton
}

func (c *coroImpl) Yield() {
	c.baton <- struct{}{}
	<-c.baton
}

func (c *coroImpl) Finish() {
	c.baton <- struct{}{}
	select {}
}
