//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package iopoll

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller is the BSD-family backend, grounded on the kqueue/kevent
// syscalls exposed by golang.org/x/sys/unix, with a self-pipe used as the
// thread-safe wakeup (kqueue has no eventfd equivalent).
type kqueuePoller struct {
	kq int

	wakeR, wakeW int

	mu   sync.Mutex
	regs map[int]Dir
}

// New creates a kqueue-backed Poller.
func New() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	fds, err := unixPipe()
	if err != nil {
		unix.Close(kq)
		return nil, err
	}
	p := &kqueuePoller{
		kq:    kq,
		wakeR: fds[0],
		wakeW: fds[1],
		regs:  make(map[int]Dir),
	}
	changes := []unix.Kevent_t{{
		Ident:  uint64(p.wakeR),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}}
	if _, err := unix.Kevent(kq, changes, nil, nil); err != nil {
		unix.Close(p.wakeR)
		unix.Close(p.wakeW)
		unix.Close(kq)
		return nil, err
	}
	return p, nil
}

func unixPipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return fds, err
	}
	return fds, nil
}

func (p *kqueuePoller) AddEv(fd int, dir Dir) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.regs[fd]
	if cur&dir != 0 {
		return ErrAlreadyRegistered
	}

	var changes []unix.Kevent_t
	if dir&Read != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_CLEAR})
	}
	if dir&Write != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_CLEAR})
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		return err
	}
	p.regs[fd] = cur | dir
	return nil
}

func (p *kqueuePoller) DelEv(fd int, dir Dir) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur, ok := p.regs[fd]
	if !ok || cur&dir == 0 {
		return ErrNotRegistered
	}

	var changes []unix.Kevent_t
	if dir&Read != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE})
	}
	if dir&Write != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE})
	}
	unix.Kevent(p.kq, changes, nil, nil)

	next := cur &^ dir
	if next == 0 {
		delete(p.regs, fd)
	} else {
		p.regs[fd] = next
	}
	return nil
}

func (p *kqueuePoller) DelEvAll(fd int) error {
	p.mu.Lock()
	cur, ok := p.regs[fd]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if cur&Read != 0 {
		p.DelEv(fd, Read)
	}
	if cur&Write != 0 {
		p.DelEv(fd, Write)
	}
	return nil
}

func (p *kqueuePoller) Wait(timeout time.Duration) ([]Event, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(int64(timeout))
		ts = &t
	}

	var raw [128]unix.Kevent_t
	for {
		n, err := unix.Kevent(p.kq, nil, raw[:], ts)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}

		events := make([]Event, 0, n)
		for i := 0; i < n; i++ {
			fd := int(raw[i].Ident)
			if fd == p.wakeR {
				var buf [64]byte
				for {
					if _, err := unix.Read(p.wakeR, buf[:]); err != nil {
						break
					}
				}
				continue
			}
			switch raw[i].Filter {
			case unix.EVFILT_READ:
				events = append(events, Event{FD: fd, Dir: Read})
			case unix.EVFILT_WRITE:
				events = append(events, Event{FD: fd, Dir: Write})
			}
		}
		return events, nil
	}
}

func (p *kqueuePoller) Signal() {
	var one [1]byte
	unix.Write(p.wakeW, one[:])
}

func (p *kqueuePoller) Close() error {
	unix.Close(p.wakeR)
	unix.Close(p.wakeW)
	return unix.Close(p.kq)
}
