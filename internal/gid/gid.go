// Package gid gives the calling goroutine a stable identity key. The
// runtime needs this because its public API (Yield, Sleep, AddTimer, ...)
// is a set of parameterless free functions, mirroring the C++ original's
// co::yield()/co::sleep() global functions: something has to map "whichever
// goroutine called this" back to "which Coroutine (or scheduler main
// context) that is" without threading a handle through every call site.
//
// Go's runtime.newcoro (the primitive internal/corostack's linkname backend
// uses) hands each coroutine its own distinct goroutine, exactly like the
// portable channel-handoff fallback does, so a goroutine id is a correct,
// stable key for the lifetime of a coroutine under either backend.
package gid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current returns the calling goroutine's runtime-assigned id by parsing
// the "goroutine N [...]:" header runtime.Stack emits. This is slower than
// a dedicated runtime hook, but needs no linkname and stays correct across
// Go versions; only the stack-switch primitive itself (internal/corostack)
// is worth the linkname fast path.
func Current() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		panic("gid: could not parse goroutine id from runtime.Stack output: " + err.Error())
	}
	return id
}
