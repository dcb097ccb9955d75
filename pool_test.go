package co_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/coruntime/co"
)

func TestPoolGetPutReusesWithinScheduler(t *testing.T) {
	var created atomic.Int64
	p := co.NewPool(func() int {
		created.Add(1)
		return int(created.Load())
	}, nil, 0)

	var wg co.WaitGroup
	wg.Add(1)
	co.Go(func() {
		defer wg.Done()
		v := p.Get()
		p.Put(v)
		v2 := p.Get()
		if v2 != v {
			t.Errorf("Get after Put = %d, want reused value %d", v2, v)
		}
	})
	wg.Wait()

	if got := created.Load(); got != 1 {
		t.Fatalf("created = %d, want 1 (value should have been reused)", got)
	}
}

// TestPoolCapacityCapBlocksCooperatively pins two coroutines to the same
// scheduler with a capacity-1 pool: the second Get must block until the
// first Put releases the slot, and must do so by yielding rather than
// blocking the scheduler's own OS thread, or the first coroutine would
// never run again to call Put and the scheduler would freeze forever.
func TestPoolCapacityCapBlocksCooperatively(t *testing.T) {
	p := co.NewPool(func() int { return 1 }, nil, 1)
	s := co.NextSched()

	var wg co.WaitGroup
	wg.Add(2)

	putAt := make(chan time.Time, 1)
	var gotAt time.Time

	co.GoOn(s, func() {
		defer wg.Done()
		v := p.Get()
		co.Sleep(30 * time.Millisecond)
		p.Put(v)
		putAt <- time.Now()
	})

	time.Sleep(10 * time.Millisecond) // let the first coroutine acquire the only slot

	co.GoOn(s, func() {
		defer wg.Done()
		p.Get() // must block cooperatively until the first coroutine's Put
		gotAt = time.Now()
	})

	wg.Wait()

	if release := <-putAt; gotAt.Before(release) {
		t.Fatalf("second Get returned before the first coroutine's Put released the slot")
	}
}

func TestPoolClearInvokesDestroy(t *testing.T) {
	var destroyed atomic.Int64
	p := co.NewPool(func() int { return 1 }, func(int) { destroyed.Add(1) }, 0)

	var wg co.WaitGroup
	wg.Add(1)
	co.Go(func() {
		defer wg.Done()
		p.Put(p.Get())
	})
	wg.Wait()

	p.Clear()
	if got := destroyed.Load(); got != 1 {
		t.Fatalf("destroyed = %d, want 1", got)
	}
}
