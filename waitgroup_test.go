package co_test

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coruntime/co"
)

func TestWaitGroupThreadFanOut(t *testing.T) {
	var wg co.WaitGroup
	var counter atomic.Int64
	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			counter.Add(1)
		}()
	}
	wg.Wait()
	if got := counter.Load(); got != n {
		t.Fatalf("counter = %d, want %d", got, n)
	}
}

func TestWaitGroupCoroutineFanOut(t *testing.T) {
	var wg co.WaitGroup
	var counter atomic.Int64
	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		co.Go(func() {
			defer wg.Done()
			counter.Add(1)
		})
	}
	wg.Wait()
	if got := counter.Load(); got != n {
		t.Fatalf("counter = %d, want %d", got, n)
	}
}

// TestWaitGroupFanOut spawns 8 coroutines, each Done()ing after a random
// 0-5ms delay, and checks that Wait returns only after all 8 have done
// their work.
func TestWaitGroupFanOut(t *testing.T) {
	var wg co.WaitGroup
	var counter atomic.Int64
	const n = 8
	wg.Add(n)
	for i := 0; i < n; i++ {
		co.Go(func() {
			defer wg.Done()
			co.Sleep(time.Duration(rand.Intn(6)) * time.Millisecond)
			counter.Add(1)
		})
	}
	wg.Wait()
	if got := counter.Load(); got != n {
		t.Fatalf("counter = %d, want %d", got, n)
	}
}

func TestWaitGroupReuseAcrossZeroCrossings(t *testing.T) {
	var wg co.WaitGroup

	wg.Add(1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		wg.Done()
	}()
	wg.Wait()

	wg.Add(1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		wg.Done()
	}()
	wg.Wait()
}
