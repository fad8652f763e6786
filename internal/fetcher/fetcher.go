// Package fetcher loads the per-role data set (salary slips, expenses, dashboard stats) as one
// consistent snapshot. Overlapping refreshes are resolved last-writer-wins by issuance order.
package fetcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrStale is returned by Refresh when a newer cycle finished before this one
var ErrStale = errors.New("refresh superseded by a newer request")

// DefaultDegradedAfter is the number of consecutive silent failures that mark the connection degraded
const DefaultDegradedAfter = 3

const (
	msgDegraded  = "Having trouble reaching the server. Showing the last loaded data."
	msgRecovered = "Connection restored. Data is up to date."
	loadAction   = "loading data"
)

// Source is the set of reads a role's dashboard is built from
type Source interface {
	SalarySlips(ctx context.Context) ([]entity.SalarySlip, error)
	Expenses(ctx context.Context) ([]entity.ExpenseRequest, error)
	DashboardStats(ctx context.Context) (*entity.DashboardStats, error)
}

// Mode selects how a refresh reports progress and failure
type Mode int

const (
	// ModeInteractive shows the loading indicator and surfaces failures to the user
	ModeInteractive Mode = iota
	// ModeSilent is used by auto-refresh: no loading indicator, failures are logged only
	ModeSilent
)

func (m Mode) String() string {
	if m == ModeSilent {
		return "silent"
	}
	return "interactive"
}

// Snapshot is one consistent view of the role's data. It is replaced wholesale, never patched.
type Snapshot struct {
	Seq         uint64                  `json:"seq"`
	SalarySlips []entity.SalarySlip     `json:"salary_slips"`
	Expenses    []entity.ExpenseRequest `json:"expenses"`
	Stats       entity.DashboardStats   `json:"stats"`
	FetchedAt   time.Time               `json:"fetched_at"`
}

// Options tunes a Fetcher
type Options struct {
	DegradedAfter int
	Clock         clockwork.Clock
}

// Fetcher owns the current snapshot of one role
type Fetcher struct {
	source   Source
	notifier notify.Publisher
	logger   *zap.Logger
	clock    clockwork.Clock

	degradedAfter int
	issued        atomic.Uint64
	loading       atomic.Int32

	mu        sync.RWMutex
	resolved  uint64 // highest cycle that finished, applied or failed
	current   *Snapshot
	failures  int
	degraded  bool
	listeners map[int]func(*Snapshot)
	nextID    int
}

// New creates a fetcher reading from source
func New(source Source, notifier notify.Publisher, logger *zap.Logger, opts Options) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if opts.DegradedAfter <= 0 {
		opts.DegradedAfter = DefaultDegradedAfter
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Fetcher{
		source:        source,
		notifier:      notifier,
		logger:        logger,
		clock:         opts.Clock,
		degradedAfter: opts.DegradedAfter,
		listeners:     make(map[int]func(*Snapshot)),
	}
}

// Refresh runs one fetch cycle. The three reads run concurrently and any failure fails the
// whole cycle, keeping the previous snapshot. A result that finishes after a newer cycle has
// finished is discarded with ErrStale, whether that newer cycle succeeded or failed.
func (f *Fetcher) Refresh(ctx context.Context, mode Mode) (*Snapshot, error) {
	seq := f.issued.Add(1)
	if mode == ModeInteractive {
		f.loading.Add(1)
		defer f.loading.Add(-1)
	}

	snap, err := f.fetch(ctx, seq)

	f.mu.Lock()
	if seq <= f.resolved {
		f.mu.Unlock()
		f.logger.Debug("Discarding stale refresh",
			zap.Uint64("seq", seq),
			zap.String("mode", mode.String()),
			zap.Bool("failed", err != nil))
		return nil, ErrStale
	}
	if err != nil {
		f.resolved = seq
		becameDegraded := false
		if mode == ModeSilent {
			f.failures++
			if f.failures >= f.degradedAfter && !f.degraded {
				f.degraded = true
				becameDegraded = true
			}
		}
		failures := f.failures
		f.mu.Unlock()
		f.reportFailure(ctx, mode, seq, failures, becameDegraded, err)
		return nil, err
	}

	f.resolved = seq
	f.current = snap
	f.failures = 0
	recovered := f.degraded
	f.degraded = false
	listeners := make([]func(*Snapshot), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	f.logger.Debug("Snapshot applied",
		zap.Uint64("seq", seq),
		zap.String("mode", mode.String()),
		zap.Int("salary_slips", len(snap.SalarySlips)),
		zap.Int("expenses", len(snap.Expenses)))

	if recovered {
		f.notifier.Publish(ctx, notify.LevelInfo, msgRecovered)
	}
	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

func (f *Fetcher) fetch(ctx context.Context, seq uint64) (*Snapshot, error) {
	var (
		slips    []entity.SalarySlip
		expenses []entity.ExpenseRequest
		stats    *entity.DashboardStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		slips, err = f.source.SalarySlips(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = f.source.Expenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = f.source.DashboardStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Seq:         seq,
		SalarySlips: slips,
		Expenses:    expenses,
		FetchedAt:   f.clock.Now(),
	}
	if stats != nil {
		snap.Stats = *stats
	}
	return snap, nil
}

func (f *Fetcher) reportFailure(ctx context.Context, mode Mode, seq uint64, failures int, becameDegraded bool, err error) {
	if mode == ModeSilent {
		f.logger.Warn("Background refresh failed",
			zap.Uint64("seq", seq),
			zap.Int("consecutive_failures", failures),
			zap.Error(err))
		if becameDegraded {
			f.notifier.Publish(ctx, notify.LevelWarning, msgDegraded)
		}
		return
	}

	f.logger.Error("Refresh failed", zap.Uint64("seq", seq), zap.Error(err))
	// The session manager already tells the user their session expired.
	if apperr.IsUnauthorized(err) || errors.Is(err, context.Canceled) {
		return
	}
	f.notifier.Publish(ctx, notify.LevelError, apperr.UserMessage(err, loadAction))
}

// Current returns the last applied snapshot, or nil before the first successful load
func (f *Fetcher) Current() *Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Loading reports whether an interactive refresh is in flight
func (f *Fetcher) Loading() bool {
	return f.loading.Load() > 0
}

// Degraded reports whether background refreshes have been failing
func (f *Fetcher) Degraded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.degraded
}

// OnSnapshot registers fn to be called with every applied snapshot.
// The returned function removes the subscription.
func (f *Fetcher) OnSnapshot(fn func(*Snapshot)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}
