package testutil

import (
	"context"
	"testing"
	"time"
)

// WaitFor polls check until it returns true, failing the test after timeout.
// Bridge tests use it to observe connection state changed by the read pump.
func WaitFor(t testing.TB, check func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline.C:
			t.Fatalf("condition not met within %v", timeout)
		case <-ticker.C:
			if check() {
				return
			}
		}
	}
}

// ContextWithTimeout bounds a host round trip in a test; the context is
// cancelled at cleanup.
func ContextWithTimeout(t testing.TB, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}
