package co

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// schedManager is the global holder of the scheduler slice, the two-choice
// placement state, and the "active" flag,
// initialized lazily on first use and stoppable exactly once.
type schedManager struct {
	initOnce sync.Once
	cfg      Config
	scheds   []*Scheduler

	startOnce    sync.Once
	mainReserved atomic.Bool

	mu          sync.Mutex
	placedCount int
	nextRR      int
	lastSample  []int64

	active atomic.Bool
}

var globalSchedManager schedManager

func ensureInit() *schedManager {
	sm := &globalSchedManager
	sm.initOnce.Do(func() {
		cfg := loadConfig()
		sm.cfg = cfg
		sm.scheds = make([]*Scheduler, cfg.SchedNum)
		sm.lastSample = make([]int64, cfg.SchedNum)
		for i := range sm.scheds {
			s, err := newScheduler(i, cfg)
			if err != nil {
				fatalf("failed to create scheduler %d: %v", i, err)
			}
			sm.scheds[i] = s
		}
		sm.active.Store(true)
	})
	return sm
}

// startBackground launches every scheduler's Loop on its own goroutine,
// except scheduler 0 if MainSched reserved it for the caller. It runs at
// most once, triggered by the first Go/GoOn call.
func (sm *schedManager) startBackground() {
	sm.startOnce.Do(func() {
		start := 0
		if sm.mainReserved.Load() {
			start = 1
		}
		for i := start; i < len(sm.scheds); i++ {
			s := sm.scheds[i]
			go func() {
				if err := s.Loop(); err != nil {
					s.logger.Error("scheduler loop exited", "scheduler", s.id, "err", err)
				}
			}()
		}
	})
}

// place implements the two-choice placement policy: the first sched_num tasks
// go round-robin so every scheduler warms up, then two-choice load
// balancing picks whichever of two candidate schedulers looks less loaded.
func (sm *schedManager) place() *Scheduler {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	n := len(sm.scheds)
	if sm.placedCount < n {
		s := sm.scheds[sm.placedCount]
		sm.placedCount++
		return s
	}

	i := sm.nextRR % n
	j := (i + 1) % n
	sm.nextRR++

	first, alt := sm.scheds[i], sm.scheds[j]
	if first.cpuTime.Load() <= sm.lastSample[j] {
		return first
	}
	sm.lastSample[j] = alt.cpuTime.Load()
	return alt
}

// Go submits fn as a new task to a scheduler chosen by the placement policy.
// It is thread-safe and may be called before or after any Scheduler's Loop
// has started.
func Go(fn func()) {
	sm := ensureInit()
	sm.startBackground()
	s := sm.place()
	s.mailbox.postNewTask(fn)
	s.poller.Signal()
}

// GoOn submits fn as a new task to a specific scheduler.
func GoOn(s *Scheduler, fn func()) {
	if s == nil {
		fatalf("GoOn called with a nil scheduler")
	}
	ensureInit().startBackground()
	s.mailbox.postNewTask(fn)
	s.poller.Signal()
}

// Sched returns the Scheduler owning the calling coroutine, or nil if the
// calling goroutine is not currently running as a coroutine.
func Sched() *Scheduler {
	c := Coroutine()
	if c == nil {
		return nil
	}
	return c.sched
}

// Scheds returns a snapshot of every Scheduler managed by the runtime.
func Scheds() []*Scheduler {
	sm := ensureInit()
	out := make([]*Scheduler, len(sm.scheds))
	copy(out, sm.scheds)
	return out
}

// SchedNum reports how many Schedulers the runtime manages.
func SchedNum() int {
	return len(ensureInit().scheds)
}

// SchedID returns the id of the calling coroutine's owning scheduler. It is
// a checked-assertion misuse to call it outside a coroutine.
func SchedID() int {
	c := requireCoroutine("SchedID")
	return c.sched.id
}

// NextSched returns the next scheduler in round-robin order, for callers
// that want to spread work manually via GoOn.
func NextSched() *Scheduler {
	sm := ensureInit()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s := sm.scheds[sm.nextRR%len(sm.scheds)]
	sm.nextRR++
	return s
}

// MainSched designates scheduler 0 to run on the caller's own goroutine via
// its returned Loop method, instead of a background goroutine. It must be
// called before the first Go/GoOn call to take effect.
func MainSched() *Scheduler {
	sm := ensureInit()
	sm.mainReserved.Store(true)
	return sm.scheds[0]
}

// StopScheds performs an orderly shutdown: every scheduler sees a stop flag
// and its poller is signaled, and StopScheds waits for every loop to
// return. Calling it again after a successful stop is a no-op. Re-
// initialization after a stop is not supported.
func StopScheds() {
	sm := &globalSchedManager
	if !sm.active.CompareAndSwap(true, false) {
		return
	}
	var g errgroup.Group
	for _, s := range sm.scheds {
		s := s
		g.Go(func() error {
			s.stop()
			<-s.done
			return nil
		})
	}
	_ = g.Wait()
}
