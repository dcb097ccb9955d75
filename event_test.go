package co_test

import (
	"testing"
	"time"

	"github.com/coruntime/co"
)

func TestEventAutoResetWaitConsumesSignal(t *testing.T) {
	e := co.NewEvent(false)
	e.Signal()
	if !e.Wait(0) {
		t.Fatalf("first Wait after Signal should observe it")
	}
	if e.Wait(0) {
		t.Fatalf("auto-reset event should not still be signaled")
	}
}

func TestEventManualResetStaysSignaled(t *testing.T) {
	e := co.NewEvent(true)
	e.Signal()
	if !e.Wait(0) {
		t.Fatalf("first Wait should observe the signal")
	}
	if !e.Wait(0) {
		t.Fatalf("manual-reset event should still be signaled")
	}
	e.Reset()
	if e.Wait(0) {
		t.Fatalf("event should not be signaled after Reset")
	}
}

func TestEventWaitTimeout(t *testing.T) {
	e := co.NewEvent(false)
	start := time.Now()
	if e.Wait(20 * time.Millisecond) {
		t.Fatalf("Wait should time out on an unsignaled event")
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("Wait returned too early: %v", elapsed)
	}
}

func TestEventSignalWakesAllWaiters(t *testing.T) {
	e := co.NewEvent(false)
	const n = 8
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			results <- e.Wait(time.Second)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	e.Signal()

	for i := 0; i < n; i++ {
		if !<-results {
			t.Fatalf("waiter %d did not observe the signal", i)
		}
	}
}
