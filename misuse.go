package co

import "fmt"

// fatalf reports a programmer-misuse condition, such as calling
// coroutine-only APIs from a non-coroutine thread or double-registering an
// fd+direction. These are checked assertions: fatalf panics with a
// diagnostic rather than returning an error a caller might ignore. Yield
// does not check whether a wake was armed before it suspends.
func fatalf(format string, args ...any) {
	panic(fmt.Sprintf("co: fatal misuse: "+format, args...))
}

// requireCoroutine panics if the calling goroutine is not currently running
// as a coroutine, for APIs (add_timer, yield, on_stack, Pool.Get/Put, ...)
// that are only meaningful inside one.
func requireCoroutine(api string) *Coroutine {
	c := Coroutine()
	if c == nil {
		fatalf("%s called from a non-coroutine thread", api)
	}
	return c
}
