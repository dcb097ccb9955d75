/*
Package co is a multi-threaded M:N stackful coroutine runtime: a fixed set
of cooperative Schedulers, each pinned to an OS thread, running user tasks
as coroutines with private stacks, integrated with edge-triggered I/O
readiness, an ordered timer manager, and coroutine-aware synchronization
primitives (Mutex, Event, WaitGroup, Pool, Chan).

A coroutine is scheduled onto exactly one Scheduler for its lifetime and
runs uninterrupted between explicit suspension points: Yield, Sleep, a
primitive's blocking Wait/Lock/Recv/Send, or an I/O routine that arms an
event and yields. Cross-thread wakeups always go through the target
scheduler's mailbox; nothing ever jumps directly on the calling goroutine
except the coroutine's own scheduler.
*/
package co
