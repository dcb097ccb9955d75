//go:build linkname

package corostack

import (
	_ "unsafe"
)

type rtcoro struct{}

//go:linkname newcoro runtime.newcoro
func newcoro(func(*rtcoro)) *rtcoro

//go:linkname coroswitch runtime.coroswitch
func coroswitch(*rtcoro)

//go:linkname coroexit runtime.coroexit
func coroexit(*rtcoro)

// coroImpl backed by the Go runtime's own coroutine primitive (the same one
// that powers iter.Pull). This gives a true stack switch with no extra
// goroutine and no channel handoff.
type coroImpl struct {
	rt *rtcoro
}

func (c *coroImpl) Start(entry func()) {
	c.rt = newcoro(func(*rtcoro) {
		entry()
		panic("corostack: entry returned without calling Finish")
	})
	coroswitch(c.rt)
}

func (c *coroImpl) Resume() {
	coroswitch(c.rt)
}

func (c *coroImpl) Yield() {
	coroswitch(c.rt)
}

func (c *coroImpl) Finish() {
	coroexit(c.rt)
	panic("corostack: unreachable after coroexit")
}
