package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/payroll-console/internal/fetcher"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultRefreshInterval matches the dashboard auto-refresh period
const DefaultRefreshInterval = 30 * time.Second

// Refresher is what the auto-refresher drives; *fetcher.Fetcher satisfies it
type Refresher interface {
	Refresh(ctx context.Context, mode fetcher.Mode) (*fetcher.Snapshot, error)
}

// AutoRefresher silently refreshes dashboard data on a fixed interval.
// Failures are left to the fetcher's own logging and degraded tracking; the next tick retries.
type AutoRefresher struct {
	target   Refresher
	clock    clockwork.Clock
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	ticks     int
}

// NewAutoRefresher creates an auto-refresher. A nil clock uses the real clock.
func NewAutoRefresher(target Refresher, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) *AutoRefresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AutoRefresher{
		target:   target,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Start starts the refresh loop
func (r *AutoRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("auto refresher is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.isRunning = true

	r.logger.Debug("AutoRefresher started", zap.Duration("interval", r.interval))

	go r.loop(loopCtx, r.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight refresh to return,
// so no refresh runs after Stop
func (r *AutoRefresher) Stop() {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = false
	r.cancel()
	done := r.done
	r.mu.Unlock()

	<-done
	r.mu.Lock()
	ticks := r.ticks
	r.mu.Unlock()
	r.logger.Debug("AutoRefresher stopped", zap.Int("ticks", ticks))
}

// Name returns the worker name for identification
func (r *AutoRefresher) Name() string {
	return "AutoRefresher"
}

func (r *AutoRefresher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.mu.Lock()
			r.ticks++
			tick := r.ticks
			r.mu.Unlock()

			_, err := r.target.Refresh(ctx, fetcher.ModeSilent)
			if err != nil && !errors.Is(err, fetcher.ErrStale) && !errors.Is(err, context.Canceled) {
				r.logger.Debug("Auto refresh tick failed", zap.Int("tick", tick), zap.Error(err))
			}
		}
	}
}
