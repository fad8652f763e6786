package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the delay applied to free-text search input
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delivers only the last value pushed within a quiet period (trailing edge).
// Every Push restarts the delay.
type Debouncer[T any] struct {
	timer   *Timer
	delay   time.Duration
	deliver func(T)

	mu      sync.Mutex
	pending *T
}

// NewDebouncer creates a debouncer calling deliver after delay of inactivity
func NewDebouncer[T any](clock clockwork.Clock, delay time.Duration, deliver func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[T]{
		timer:   New(clock),
		delay:   delay,
		deliver: deliver,
	}
}

// Push records v as the latest value and restarts the quiet period
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	d.pending = &v
	d.mu.Unlock()

	d.timer.Schedule(d.delay, d.fire)
}

// Flush delivers the pending value immediately, if any
func (d *Debouncer[T]) Flush() {
	d.timer.Cancel()
	d.fire()
}

// Stop discards the pending value and disables the debouncer
func (d *Debouncer[T]) Stop() {
	d.timer.Stop()
	d.mu.Lock()
	d.pending = nil
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	v := d.pending
	d.pending = nil
	d.mu.Unlock()

	if v != nil {
		d.deliver(*v)
	}
}
