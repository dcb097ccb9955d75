//go:build linux

package iopoll

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller is the edge-triggered Linux backend, grounded on the
// epoll_create1/epoll_ctl/epoll_wait syscalls exposed by
// golang.org/x/sys/unix, with an eventfd used as the self-pipe wakeup.
type epollPoller struct {
	epfd int
	wfd  int // eventfd, level-triggered read side used purely for wakeup

	mu   sync.Mutex
	regs map[int]Dir // fd -> currently registered directions
}

// New creates an epoll-backed Poller.
func New() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wfd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	p := &epollPoller{
		epfd: epfd,
		wfd:  wfd,
		regs: make(map[int]Dir),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wfd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wfd),
	}); err != nil {
		unix.Close(wfd)
		unix.Close(epfd)
		return nil, err
	}
	return p, nil
}

func epollEvents(dir Dir) uint32 {
	var ev uint32 = unix.EPOLLET
	if dir&Read != 0 {
		ev |= unix.EPOLLIN
	}
	if dir&Write != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) AddEv(fd int, dir Dir) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.regs[fd]
	if cur&dir != 0 {
		return ErrAlreadyRegistered
	}
	next := cur | dir
	op := unix.EPOLL_CTL_MOD
	if cur == 0 {
		op = unix.EPOLL_CTL_ADD
	}
	if err := unix.EpollCtl(p.epfd, op, fd, &unix.EpollEvent{
		Events: epollEvents(next),
		Fd:     int32(fd),
	}); err != nil {
		return err
	}
	p.regs[fd] = next
	return nil
}

func (p *epollPoller) DelEv(fd int, dir Dir) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur, ok := p.regs[fd]
	if !ok || cur&dir == 0 {
		return ErrNotRegistered
	}
	next := cur &^ dir
	if next == 0 {
		if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
			return err
		}
		delete(p.regs, fd)
		return nil
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: epollEvents(next),
		Fd:     int32(fd),
	}); err != nil {
		return err
	}
	p.regs[fd] = next
	return nil
}

func (p *epollPoller) DelEvAll(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.regs[fd]; !ok {
		return nil
	}
	delete(p.regs, fd)
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(timeout time.Duration) ([]Event, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	var raw [128]unix.EpollEvent
	for {
		n, err := unix.EpollWait(p.epfd, raw[:], ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}

		events := make([]Event, 0, n)
		for i := 0; i < n; i++ {
			fd := int(raw[i].Fd)
			if fd == p.wfd {
				var buf [8]byte
				unix.Read(p.wfd, buf[:])
				continue
			}
			if raw[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
				events = append(events, Event{FD: fd, Dir: Read})
			}
			if raw[i].Events&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
				events = append(events, Event{FD: fd, Dir: Write})
			}
		}
		return events, nil
	}
}

func (p *epollPoller) Signal() {
	var one [8]byte
	one[0] = 1
	unix.Write(p.wfd, one[:])
}

func (p *epollPoller) Close() error {
	unix.Close(p.wfd)
	return unix.Close(p.epfd)
}
