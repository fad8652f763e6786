// Package timer provides a cancellable one-shot timer and a trailing-edge debouncer.
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer runs one unit of work after a delay. Scheduling again replaces the pending work;
// Stop cancels it permanently.
type Timer struct {
	clock clockwork.Clock

	mu      sync.Mutex
	current clockwork.Timer
	gen     uint64
	stopped bool
}

// New creates a timer on the given clock. A nil clock means the real clock.
func New(clock clockwork.Clock) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock}
}

// Schedule cancels any pending work and runs fn after d. It returns false after Stop.
func (t *Timer) Schedule(d time.Duration, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return false
	}
	t.cancelLocked()

	t.gen++
	gen := t.gen
	t.current = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		// a newer Schedule, Cancel or Stop invalidates this generation
		if t.stopped || t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.current = nil
		t.mu.Unlock()
		fn()
	})
	return true
}

// Cancel drops the pending work, if any. It reports whether something was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelLocked()
}

func (t *Timer) cancelLocked() bool {
	if t.current == nil {
		return false
	}
	t.current.Stop()
	t.current = nil
	t.gen++
	return true
}

// Stop cancels pending work and refuses any further scheduling
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.stopped = true
}

// Pending reports whether work is scheduled and not yet started
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil
}
