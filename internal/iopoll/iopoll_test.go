package iopoll_test

import (
	"os"
	"testing"
	"time"

	"github.com/coruntime/co/internal/iopoll"
)

func TestSignalWakesWait(t *testing.T) {
	p, err := iopoll.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	done := make(chan struct{})
	go func() {
		p.Wait(5 * time.Second)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	p.Signal()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Signal did not wake a concurrent Wait")
	}
}

func TestWaitTimesOutWithoutSignal(t *testing.T) {
	p, err := iopoll.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	start := time.Now()
	if _, err := p.Wait(20 * time.Millisecond); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatalf("Wait returned too early")
	}
}

func TestDoubleRegistrationSameDirectionErrors(t *testing.T) {
	p, err := iopoll.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	if err := p.AddEv(fd, iopoll.Read); err != nil {
		t.Fatalf("first AddEv: %v", err)
	}
	if err := p.AddEv(fd, iopoll.Read); err != iopoll.ErrAlreadyRegistered {
		t.Fatalf("second AddEv err = %v, want ErrAlreadyRegistered", err)
	}
	if err := p.DelEv(fd, iopoll.Read); err != nil {
		t.Fatalf("DelEv: %v", err)
	}
	if err := p.DelEv(fd, iopoll.Read); err != iopoll.ErrNotRegistered {
		t.Fatalf("second DelEv err = %v, want ErrNotRegistered", err)
	}
}

func TestDelEvAllIsIdempotent(t *testing.T) {
	p, err := iopoll.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fd := int(r.Fd())
	if err := p.AddEv(fd, iopoll.Read); err != nil {
		t.Fatalf("AddEv: %v", err)
	}
	if err := p.DelEvAll(fd); err != nil {
		t.Fatalf("first DelEvAll: %v", err)
	}
	if err := p.DelEvAll(fd); err != nil {
		t.Fatalf("second DelEvAll: %v", err)
	}
}
