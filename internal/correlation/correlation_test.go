package correlation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDeliver_ResolvesWaiter(t *testing.T) {
	e := New()
	w := e.Register("DEVICE_COUNT")

	if !e.Deliver("DEVICE_COUNT", "5") {
		t.Fatal("Deliver() = false, want true")
	}

	got, err := w.Wait(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got != "5" {
		t.Errorf("Wait() = %q, want 5", got)
	}
	if e.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", e.Pending())
	}
}

func TestDeliver_UnsolicitedDropped(t *testing.T) {
	e := New()
	if e.Deliver("LOAD_STATUS_4", "50%") {
		t.Error("Deliver() without a waiter = true, want false")
	}
}

func TestDeliver_AtMostOnce(t *testing.T) {
	e := New()
	w := e.Register("T")

	if !e.Deliver("T", "first") {
		t.Fatal("first Deliver() = false")
	}
	if e.Deliver("T", "second") {
		t.Error("second Deliver() = true, want false")
	}

	got, err := w.Wait(context.Background(), time.Second)
	if err != nil || got != "first" {
		t.Errorf("Wait() = %q, %v; want first", got, err)
	}
}

func TestWait_Timeout(t *testing.T) {
	e := New()
	w := e.Register("DEVICE_OBJECT_1")

	start := time.Now()
	_, err := w.Wait(context.Background(), 30*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Wait() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Error("Wait() returned before the timeout")
	}

	// A response after the timeout is unsolicited.
	if e.Deliver("DEVICE_OBJECT_1", "{}") {
		t.Error("late Deliver() = true, want false")
	}
	if e.Pending() != 0 {
		t.Errorf("Pending() = %d after timeout", e.Pending())
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	e := New()
	w := e.Register("T")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Wait(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestRegister_LastWins(t *testing.T) {
	e := New()
	first := e.Register("T")
	second := e.Register("T")

	e.Deliver("T", "v")

	if got, err := second.Wait(context.Background(), time.Second); err != nil || got != "v" {
		t.Errorf("second.Wait() = %q, %v", got, err)
	}
	if _, err := first.Wait(context.Background(), 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Errorf("first.Wait() error = %v, want ErrTimeout", err)
	}
}

func TestCancel_OnlyRemovesOwnRegistration(t *testing.T) {
	e := New()
	first := e.Register("T")
	second := e.Register("T")

	first.Cancel()
	if e.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", e.Pending())
	}

	second.Cancel()
	if e.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", e.Pending())
	}
}

func TestRequest(t *testing.T) {
	e := New()

	got, err := e.Request(context.Background(), "LOAD_STATUS_3", time.Second, func() error {
		// The response arrives before Request starts waiting.
		e.Deliver("LOAD_STATUS_3", "80%")
		return nil
	})
	if err != nil || got != "80%" {
		t.Errorf("Request() = %q, %v", got, err)
	}
}

func TestRequest_SendError(t *testing.T) {
	e := New()
	sendErr := errors.New("channel closed")

	_, err := e.Request(context.Background(), "T", time.Second, func() error { return sendErr })
	if !errors.Is(err, sendErr) {
		t.Errorf("Request() error = %v, want send error", err)
	}
	if e.Pending() != 0 {
		t.Errorf("Pending() = %d after failed send", e.Pending())
	}
}

func TestConcurrentWaiters_OutOfOrder(t *testing.T) {
	e := New()
	tags := []string{"A", "B", "C", "D"}

	waiters := make([]*Waiter, len(tags))
	for i, tag := range tags {
		waiters[i] = e.Register(tag)
	}

	results := make([]string, len(tags))
	var wg sync.WaitGroup
	for i, w := range waiters {
		wg.Add(1)
		go func(i int, w *Waiter) {
			defer wg.Done()
			v, err := w.Wait(context.Background(), time.Second)
			if err != nil {
				t.Errorf("Wait(%s) error = %v", w.Tag(), err)
				return
			}
			results[i] = v
		}(i, w)
	}

	for i := len(tags) - 1; i >= 0; i-- {
		e.Deliver(tags[i], "v"+tags[i])
	}
	wg.Wait()

	for i, tag := range tags {
		if results[i] != "v"+tag {
			t.Errorf("waiter %s got %q", tag, results[i])
		}
	}
}

func TestAwaitOnce_NoTimeoutUsesContext(t *testing.T) {
	e := New()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.AwaitOnce(ctx, "T", 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AwaitOnce() error = %v, want DeadlineExceeded", err)
	}
}
