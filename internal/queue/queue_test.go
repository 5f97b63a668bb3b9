package queue

import (
	"testing"
	"time"

	"github.com/aortez/cellsim-server/internal/event"
)

func TestPushTryPopFIFO(t *testing.T) {
	q := New()
	q.Push(event.Reset{})
	q.Push(event.Pause{})

	e1, ok := q.TryPop()
	if !ok || e1.Name() != "reset" {
		t.Fatalf("expected reset first, got %v ok=%v", e1, ok)
	}
	e2, ok := q.TryPop()
	if !ok || e2.Name() != "pause" {
		t.Fatalf("expected pause second, got %v ok=%v", e2, ok)
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New()
	done := make(chan event.Event, 1)
	go func() {
		e, ok := q.Pop()
		if ok {
			done <- e
		} else {
			done <- nil
		}
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("expected Pop to still be blocked")
	default:
	}

	q.Push(event.Resume{})
	select {
	case e := <-done:
		if e == nil || e.Name() != "resume" {
			t.Fatalf("expected resume, got %v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Pop to unblock")
	}
}

func TestStopWakesBlockedPop(t *testing.T) {
	q := New()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Stop()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected Pop to report stopped (ok=false)")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Stop to wake Pop")
	}
}

func TestDrainAll(t *testing.T) {
	q := New()
	q.Push(event.Reset{})
	q.Push(event.Pause{})
	drained := q.DrainAll()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained events, got %d", len(drained))
	}
	if q.Len() != 0 {
		t.Fatal("expected queue empty after drain")
	}
}

func TestPushAfterStopIsDiscarded(t *testing.T) {
	q := New()
	q.Stop()
	q.Push(event.Reset{})
	if q.Len() != 0 {
		t.Fatal("expected push after stop to be discarded")
	}
}
