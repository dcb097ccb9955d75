package co

import "sync"

// taskManager is a scheduler's inbound mailbox: two FIFO queues guarded by
// one mutex, drained in bulk under a single critical section per loop
// iteration. newTasks holds closures
// awaiting a fresh Coroutine; readyTasks holds coroutines posted by Resume
// from any goroutine (Mutex, Event, Pool and Chan wake their waiters this
// way). I/O readiness and timer expiry resume coroutines directly on the
// loop and do not pass through the mailbox.
type taskManager struct {
	mu sync.Mutex

	newTasks   []func()
	readyTasks []*Coroutine
}

// highWaterMark bounds how large the drain buffers are allowed to grow
// before being reallocated back down, so one large burst doesn't pin memory
// for the scheduler's lifetime.
const highWaterMark = 4096

func (m *taskManager) postNewTask(fn func()) {
	m.mu.Lock()
	m.newTasks = append(m.newTasks, fn)
	m.mu.Unlock()
}

func (m *taskManager) postReadyTask(c *Coroutine) {
	m.mu.Lock()
	m.readyTasks = append(m.readyTasks, c)
	m.mu.Unlock()
}

// drain removes and returns everything currently queued, resetting the
// mailbox for the next iteration. The returned slices belong to the caller:
// posts made while the caller walks them go to fresh buffers. Slices bigger
// than highWaterMark are dropped rather than kept around at full capacity.
func (m *taskManager) drain() (newTasks []func(), readyTasks []*Coroutine) {
	m.mu.Lock()
	newTasks, readyTasks = m.newTasks, m.readyTasks
	if cap(m.newTasks) > highWaterMark {
		m.newTasks = nil
	} else {
		m.newTasks = make([]func(), 0, cap(newTasks))
	}
	if cap(m.readyTasks) > highWaterMark {
		m.readyTasks = nil
	} else {
		m.readyTasks = make([]*Coroutine, 0, cap(readyTasks))
	}
	m.mu.Unlock()
	return newTasks, readyTasks
}

func (m *taskManager) empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.newTasks) == 0 && len(m.readyTasks) == 0
}
