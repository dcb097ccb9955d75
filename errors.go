package co

import "errors"

type constErr string

func (e constErr) Error() string { return string(e) }

// Sentinel errors naming the observable, non-fatal outcomes of a blocking
// operation. Programmer-misuse conditions are instead checked assertions
// that panic; see misuse.go. No function in this package returns these
// three values: Chan.Send/Recv and Event.Wait report a timeout or a closed
// channel through their bool results.
const (
	// ErrClosed names the outcome of a channel operation performed on (or
	// racing with) a closed channel.
	ErrClosed = constErr("co: channel closed")
	// ErrTimeout names the outcome of a blocking primitive whose deadline
	// elapsed before it was signaled.
	ErrTimeout = constErr("co: operation timed out")
	// ErrShutdown names the state of the runtime after StopScheds.
	ErrShutdown = constErr("co: scheduler manager stopped")
)

// ErrAlreadyRunning is returned by Scheduler.Loop when Loop has already been
// called on that Scheduler.
var ErrAlreadyRunning = errors.New("co: scheduler manager already running")
