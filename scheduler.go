package co

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/coruntime/co/internal/corostack"
	"github.com/coruntime/co/internal/iopoll"
	"github.com/coruntime/co/internal/stackslot"
	"github.com/coruntime/co/internal/timerwheel"
)

// ioWaiter tracks the coroutines, if any, registered for read and write
// readiness on one file descriptor. Registering a second waiter in a
// direction that already has one is a checked-assertion misuse.
type ioWaiter struct {
	read, write *Coroutine
}

// Scheduler is a cooperative loop pinned to one OS thread, owning a disjoint
// set of Coroutines, a timer wheel, an I/O poller, and an inbound task
// mailbox.
type Scheduler struct {
	id int

	poller iopoll.Poller
	timers *timerwheel.Wheel
	slots  *stackslot.Array

	mailbox taskManager

	coros     map[uint32]*Coroutine
	freeSlab  []uint32
	nextSlab  uint32
	ioWaiters map[int]*ioWaiter

	running *Coroutine
	main    *Coroutine

	cpuTime  atomic.Int64
	lastTick time.Time

	loopStarted atomic.Bool
	stopped     atomic.Bool
	done        chan struct{}

	logger *slog.Logger
}

func newScheduler(id int, cfg Config) (*Scheduler, error) {
	poller, err := iopoll.New()
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		id:        id,
		poller:    poller,
		timers:    timerwheel.New(),
		slots:     stackslot.New(cfg.StackNum),
		coros:     make(map[uint32]*Coroutine),
		ioWaiters: make(map[int]*ioWaiter),
		done:      make(chan struct{}),
		logger:    Logger(),
	}
	s.main = &Coroutine{id: makeCoroutineID(id, 0), sched: s, main: true}
	return s, nil
}

// Id reports the scheduler's small integer id, stable for its lifetime.
func (s *Scheduler) Id() int { return s.id }

func (s *Scheduler) String() string {
	return fmt.Sprintf("sched%d", s.id)
}

func (s *Scheduler) allocSlab() uint32 {
	if n := len(s.freeSlab); n > 0 {
		idx := s.freeSlab[n-1]
		s.freeSlab = s.freeSlab[:n-1]
		return idx
	}
	s.nextSlab++ // slab 0 is reserved for the scheduler's own main coroutine
	return s.nextSlab
}

func slabIndex(id uint64) uint32 { return uint32(id) }

func (s *Scheduler) newCoroutine(fn func()) *Coroutine {
	idx := s.allocSlab()
	co := &Coroutine{
		id:    makeCoroutineID(s.id, int(idx)),
		sched: s,
		slot:  s.slots.SlotFor(int(idx)),
		stack: corostack.New(),
		fn:    fn,
	}
	s.coros[idx] = co
	return co
}

func (s *Scheduler) recycle(co *Coroutine) {
	idx := slabIndex(co.id)
	delete(s.coros, idx)
	s.freeSlab = append(s.freeSlab, idx)
}

// resumeInline runs on the scheduler's own loop goroutine, on a coroutine it
// owns: jump into (or continue) the coroutine's stack, and recycle it to
// the pool if it has terminated.
func (s *Scheduler) resumeInline(co *Coroutine) {
	if co.timer != nil {
		s.timers.Remove(co.timer)
		co.timer = nil
	}
	co.waitx = nil

	prev := s.running
	s.running = co
	if !co.started {
		co.started = true
		co.stack.Start(co.trampoline)
	} else {
		co.stack.Resume()
	}
	s.running = prev

	if co.stack.Done() {
		s.recycle(co)
	}
}

func (s *Scheduler) fireTimer(e *timerwheel.Entry) {
	co := e.Payload.(*Coroutine)
	co.timer = nil

	if co.waitx == nil {
		// a bare sleep: nothing else could have woken it, so no race to lose.
		co.timedOut = true
		s.resumeInline(co)
		return
	}

	if co.waitx.TryTimeout() {
		co.timedOut = true
		s.resumeInline(co)
	}
	// else the signaler already won the wait -> ready race and owns the resume.
}

func (s *Scheduler) handleIOEvents(events []iopoll.Event) {
	for _, ev := range events {
		w, ok := s.ioWaiters[ev.FD]
		if !ok {
			continue
		}
		if ev.Dir&iopoll.Read != 0 && w.read != nil {
			co := w.read
			w.read = nil
			s.resumeIOWaiter(co)
		}
		if ev.Dir&iopoll.Write != 0 && w.write != nil {
			co := w.write
			w.write = nil
			s.resumeIOWaiter(co)
		}
		if w.read == nil && w.write == nil {
			delete(s.ioWaiters, ev.FD)
		}
	}
}

func (s *Scheduler) resumeIOWaiter(co *Coroutine) {
	co.timedOut = false
	s.resumeInline(co)
}

func (s *Scheduler) drainMailbox() {
	newTasks, readyTasks := s.mailbox.drain()
	for _, fn := range newTasks {
		s.resumeInline(s.newCoroutine(fn))
	}
	for _, co := range readyTasks {
		// Mutex/Event/WaitGroup/Chan handoffs post here, not through
		// fireTimer, so a stale timedOut from a previous timed-out wait on
		// this same coroutine must not leak into this resume.
		co.timedOut = false
		s.resumeInline(co)
	}
}

func (s *Scheduler) publishCPUTime() {
	now := time.Now()
	s.cpuTime.Add(int64(now.Sub(s.lastTick)))
	s.lastTick = now
}

// stop requests an orderly shutdown: the next time the loop wakes it will
// observe stopped and return.
func (s *Scheduler) stop() {
	if s.stopped.CompareAndSwap(false, true) {
		s.poller.Signal()
	}
}

// Loop runs the scheduler's cooperative loop until stopped: wait on the
// poller, translate I/O readiness, drain the task mailbox, expire timers,
// publish CPU time. It blocks the calling goroutine for the scheduler's
// entire lifetime and pins it to its OS thread with runtime.LockOSThread,
// the Go-native replacement for "one OS thread per scheduler". Loop returns
// ErrAlreadyRunning if called more than once on the same Scheduler.
func (s *Scheduler) Loop() error {
	if !s.loopStarted.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	registerCurrent(s.main)
	defer unregisterCurrent()

	s.lastTick = time.Now()

	for {
		if s.stopped.Load() {
			return nil
		}

		// Firing due timers at the top of the iteration, rather than after
		// the poll, lets one CheckTimeout call both fire what's due and
		// compute the next wait duration, without ever letting a remaining
		// deadline regress across iterations.
		fired, wait, hasNext := s.timers.CheckTimeout(time.Now())
		for _, e := range fired {
			s.fireTimer(e)
		}
		if s.stopped.Load() {
			return nil
		}

		pollTimeout := wait
		if !hasNext {
			pollTimeout = -1
		}
		events, err := s.poller.Wait(pollTimeout)
		if err != nil {
			s.logger.Warn("poller wait error", "scheduler", s.id, "err", err)
			continue
		}

		if s.stopped.Load() {
			return nil
		}

		s.handleIOEvents(events)
		s.drainMailbox()
		s.publishCPUTime()
	}
}
