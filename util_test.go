package communicator

import (
	"runtime"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkNumGoroutines returns a func to be deferred, which fails the test if
// the number of goroutines hasn't returned to the starting value, within the
// timeout.
func checkNumGoroutines(timeout time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(timeout)
		for {
			after := runtime.NumGoroutine()
			if after <= before {
				return
			}
			if time.Now().After(deadline) {
				t.Errorf(`expected at most %d goroutines, got %d`, before, after)
				return
			}
			time.Sleep(time.Millisecond * 10)
		}
	}
}

// receiveAsync starts a listener, returning a channel that delivers the
// received value.
func receiveAsync[T any](c *Communicator[T]) <-chan T {
	ch := make(chan T, 1)
	go func() { ch <- c.Receive() }()
	return ch
}

// sendAsync starts a speaker, returning a channel closed when Send returns.
func sendAsync[T any](c *Communicator[T], value T) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		c.Send(value)
	}()
	return ch
}

// waitGroup waits for g, failing the test (with the communicator's stats) if
// it does not complete within the timeout.
func waitGroup[T any](t *testing.T, g *errgroup.Group, c *Communicator[T], timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.Wait()
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		t.Fatalf(`deadlock: %+v`, c.Stats())
	}
}
