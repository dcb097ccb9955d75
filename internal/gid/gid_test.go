package gid_test

import (
	"sync"
	"testing"

	"github.com/coruntime/co/internal/gid"
)

func TestCurrentIsStableWithinGoroutine(t *testing.T) {
	a := gid.Current()
	b := gid.Current()
	if a != b {
		t.Fatalf("Current changed within the same goroutine: %d then %d", a, b)
	}
}

func TestCurrentDiffersAcrossGoroutines(t *testing.T) {
	const n = 8
	ids := make([]int64, n)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	wg.Add(n)
	for i := range ids {
		i := i
		go func() {
			defer wg.Done()
			start.Wait()
			ids[i] = gid.Current()
		}()
	}
	start.Done()
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate goroutine id %d among concurrently running goroutines", id)
		}
		seen[id] = true
	}
}
