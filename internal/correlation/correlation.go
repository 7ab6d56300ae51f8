package correlation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTimeout is returned when no response arrives before the deadline.
var ErrTimeout = errors.New("correlation: timed out waiting for response")

// Engine tracks in-flight waiters by tag.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	waiters map[string]*Waiter
}

// New returns an Engine with no waiters.
func New() *Engine {
	return &Engine{waiters: make(map[string]*Waiter)}
}

// Waiter is a one-shot slot for a single response.
type Waiter struct {
	tag    string
	engine *Engine
	ch     chan string
}

// Register installs a waiter for tag. Register before sending the request
// so a fast response cannot be missed.
//
// Tags must be unique among in-flight requests. Registering a tag that is
// already waiting replaces the earlier waiter, which will then time out.
func (e *Engine) Register(tag string) *Waiter {
	w := &Waiter{tag: tag, engine: e, ch: make(chan string, 1)}
	e.mu.Lock()
	e.waiters[tag] = w
	e.mu.Unlock()
	return w
}

// Deliver routes value to the waiter registered for tag and reports whether
// one was found. A waiter receives at most one value.
func (e *Engine) Deliver(tag, value string) bool {
	e.mu.Lock()
	w, ok := e.waiters[tag]
	if ok {
		delete(e.waiters, tag)
	}
	e.mu.Unlock()

	if !ok {
		return false
	}
	w.ch <- value // buffered; each waiter is removed before its only send
	return true
}

// Pending returns the number of in-flight waiters.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.waiters)
}

// AwaitOnce registers tag and waits for its response. Use Request when the
// request is sent after registration by the same caller.
func (e *Engine) AwaitOnce(ctx context.Context, tag string, timeout time.Duration) (string, error) {
	return e.Register(tag).Wait(ctx, timeout)
}

// Request registers tag, calls send, then waits for the response.
// If send fails the waiter is cancelled and the send error returned.
func (e *Engine) Request(ctx context.Context, tag string, timeout time.Duration, send func() error) (string, error) {
	w := e.Register(tag)
	if err := send(); err != nil {
		w.Cancel()
		return "", err
	}
	return w.Wait(ctx, timeout)
}

// Tag returns the tag the waiter is registered under.
func (w *Waiter) Tag() string {
	return w.tag
}

// Wait blocks until the response arrives, timeout elapses, or ctx is done.
// A timeout of zero or less waits on ctx alone. On timeout the waiter is
// dropped, so a late response is treated as unsolicited.
func (w *Waiter) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case v := <-w.ch:
		return v, nil
	case <-expired:
		if v, ok := w.takeLate(); ok {
			return v, nil
		}
		return "", fmt.Errorf("%w: %s after %v", ErrTimeout, w.tag, timeout)
	case <-ctx.Done():
		if v, ok := w.takeLate(); ok {
			return v, nil
		}
		return "", ctx.Err()
	}
}

// Cancel drops the waiter if it is still registered.
func (w *Waiter) Cancel() {
	w.engine.mu.Lock()
	if w.engine.waiters[w.tag] == w {
		delete(w.engine.waiters, w.tag)
	}
	w.engine.mu.Unlock()
}

// takeLate unregisters the waiter and returns a value that was delivered
// concurrently with the deadline, if any.
func (w *Waiter) takeLate() (string, bool) {
	w.Cancel()
	select {
	case v := <-w.ch:
		return v, true
	default:
		return "", false
	}
}
