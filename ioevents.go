package co

import "github.com/coruntime/co/internal/iopoll"

// IoEventDir is the readiness direction passed to AddIOEvent/DelIOEvent.
type IoEventDir = iopoll.Dir

// Read and Write name the two independently tracked readiness directions.
const (
	Read  = iopoll.Read
	Write = iopoll.Write
)

// AddIOEvent registers the calling coroutine's interest in dir on fd. The
// coroutine must yield immediately after; the scheduler resumes it once fd
// becomes ready in that direction. Registering a second waiter for the same
// fd+dir without an intervening DelIOEvent is a checked-assertion misuse.
func AddIOEvent(fd int, dir IoEventDir) error {
	c := requireCoroutine("AddIOEvent")
	s := c.sched

	w, ok := s.ioWaiters[fd]
	if !ok {
		w = &ioWaiter{}
		s.ioWaiters[fd] = w
	}
	if dir&iopoll.Read != 0 {
		if w.read != nil {
			fatalf("AddIOEvent: fd %d already has a read waiter", fd)
		}
		w.read = c
	}
	if dir&iopoll.Write != 0 {
		if w.write != nil {
			fatalf("AddIOEvent: fd %d already has a write waiter", fd)
		}
		w.write = c
	}
	return s.poller.AddEv(fd, dir)
}

// DelIOEvent cancels a previously armed interest on fd. With no dir given it
// cancels both directions.
func DelIOEvent(fd int, dir ...IoEventDir) error {
	c := requireCoroutine("DelIOEvent")
	s := c.sched

	// handleIOEvents drops fd's waiter entry when it resumes the waiter, but
	// the poller registration stays in place until it is deleted here.
	w, ok := s.ioWaiters[fd]
	if !ok {
		w = &ioWaiter{}
	}

	if len(dir) == 0 {
		delete(s.ioWaiters, fd)
		return s.poller.DelEvAll(fd)
	}

	var firstErr error
	for _, d := range dir {
		if d&iopoll.Read != 0 {
			w.read = nil
		}
		if d&iopoll.Write != 0 {
			w.write = nil
		}
		if err := s.poller.DelEv(fd, d); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.read == nil && w.write == nil {
		delete(s.ioWaiters, fd)
	}
	return firstErr
}
