package corostack_test

import (
	"testing"

	"github.com/coruntime/co/internal/corostack"
)

func TestStartRunsUntilFirstYield(t *testing.T) {
	var trace []string
	co := corostack.New()
	co.Start(func() {
		trace = append(trace, "a")
		co.Yield()
		trace = append(trace, "b")
		co.Finish()
	})
	if got := trace; len(got) != 1 || got[0] != "a" {
		t.Fatalf("trace after Start = %v, want [a]", got)
	}

	co.Resume()
	if got := trace; len(got) != 2 || got[1] != "b" {
		t.Fatalf("trace after Resume = %v, want [a b]", got)
	}
}

func TestDoneDistinguishesYieldFromFinish(t *testing.T) {
	co := corostack.New()
	co.Start(func() {
		co.Yield()
		co.Finish()
	})
	if co.Done() {
		t.Fatalf("Done() = true after a Yield, want false")
	}
	co.Resume()
	if !co.Done() {
		t.Fatalf("Done() = false after Finish, want true")
	}
}

func TestMultipleYields(t *testing.T) {
	var trace []int
	co := corostack.New()
	co.Start(func() {
		for i := 0; i < 3; i++ {
			trace = append(trace, i)
			co.Yield()
		}
		co.Finish()
	})
	for i := 0; i < 3; i++ {
		co.Resume()
	}
	if len(trace) != 3 {
		t.Fatalf("trace = %v, want 3 entries", trace)
	}
}

func TestIndependentCoroutinesInterleave(t *testing.T) {
	var trace []string
	a := corostack.New()
	b := corostack.New()

	a.Start(func() {
		trace = append(trace, "a1")
		a.Yield()
		trace = append(trace, "a2")
		a.Finish()
	})
	b.Start(func() {
		trace = append(trace, "b1")
		b.Yield()
		trace = append(trace, "b2")
		b.Finish()
	})

	a.Resume()
	b.Resume()

	want := "a1 b1 a2 b2"
	got := ""
	for i, s := range trace {
		if i > 0 {
			got += " "
		}
		got += s
	}
	if got != want {
		t.Fatalf("trace = %q, want %q", got, want)
	}
}
