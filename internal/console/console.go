// Package console owns the view state of one signed-in role: the fetched snapshot, the search
// boxes and status filter, and the auto-refresh loop. View derives what is displayed.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/application/dispatcher"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/event"
	"github.com/garyjia/payroll-console/internal/fetcher"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/garyjia/payroll-console/internal/timer"
	"github.com/garyjia/payroll-console/internal/worker"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var (
	ErrClosed        = errors.New("console is closed")
	ErrAlreadyActive = errors.New("console already started")
	ErrInvalidFilter = errors.New("invalid status filter")
)

// Loader is the snapshot source the console reads; *fetcher.Fetcher satisfies it
type Loader interface {
	Refresh(ctx context.Context, mode fetcher.Mode) (*fetcher.Snapshot, error)
	Current() *fetcher.Snapshot
	Loading() bool
	Degraded() bool
	OnSnapshot(fn func(*fetcher.Snapshot)) func()
}

// Directory lists employees for selection inputs and the employees page
type Directory interface {
	Employees(ctx context.Context) ([]entity.Employee, error)
}

// Deps wires a Console
type Deps struct {
	Role            entity.Role
	Loader          Loader
	Directory       Directory // admin only; may be nil
	Events          dispatcher.Dispatcher
	Notifier        notify.Publisher
	Clock           clockwork.Clock
	RefreshInterval time.Duration
	Debounce        time.Duration
	Logger          *zap.Logger
}

// Console is the view-state owner for one role
type Console struct {
	role      entity.Role
	loader    Loader
	directory Directory
	events    dispatcher.Dispatcher
	notifier  notify.Publisher
	logger    *zap.Logger
	workers   *worker.Manager

	slipSearch     *timer.Debouncer[string]
	expenseSearch  *timer.Debouncer[string]
	employeeSearch *timer.Debouncer[string]

	mu            sync.RWMutex
	slipQuery     string
	expenseQuery  string
	employeeQuery string
	statusFilter  string
	employees     []entity.Employee
	started       bool
	closed        bool
	unsubscribe   []func()
	listeners     map[int]func()
	nextListener  int
}

// New creates a console. Nothing runs until Start.
func New(deps Deps) *Console {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard{}
	}
	c := &Console{
		role:         deps.Role,
		loader:       deps.Loader,
		directory:    deps.Directory,
		events:       deps.Events,
		notifier:     deps.Notifier,
		logger:       deps.Logger,
		workers:      worker.NewManager(deps.Logger),
		statusFilter: entity.StatusFilterAll,
		listeners:    make(map[int]func()),
	}
	c.slipSearch = timer.NewDebouncer(deps.Clock, deps.Debounce, func(q string) {
		c.apply(func() { c.slipQuery = q })
	})
	c.expenseSearch = timer.NewDebouncer(deps.Clock, deps.Debounce, func(q string) {
		c.apply(func() { c.expenseQuery = q })
	})
	c.employeeSearch = timer.NewDebouncer(deps.Clock, deps.Debounce, func(q string) {
		c.apply(func() { c.employeeQuery = q })
	})
	c.workers.Register(worker.NewAutoRefresher(deps.Loader, deps.RefreshInterval, deps.Clock, deps.Logger))
	return c
}

// Role returns the role this console serves
func (c *Console) Role() entity.Role {
	return c.role
}

// Start subscribes to snapshots and events, performs the initial interactive load and starts
// auto-refresh. Auto-refresh keeps running when the initial load fails; its error is returned.
func (c *Console) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.started = true
	c.unsubscribe = append(c.unsubscribe, c.loader.OnSnapshot(func(*fetcher.Snapshot) { c.changed() }))
	if c.events != nil {
		for _, t := range []event.Type{
			event.TypeSalarySlipCreated,
			event.TypeSalarySlipUpdated,
			event.TypeExpenseSubmitted,
			event.TypeExpenseApproved,
			event.TypeExpenseRejected,
		} {
			c.unsubscribe = append(c.unsubscribe, c.events.Subscribe(t, "console.reload", c.onMutation))
		}
		c.unsubscribe = append(c.unsubscribe, c.events.Subscribe(event.TypeSessionExpired, "console.teardown", c.onSessionExpired))
	}
	c.mu.Unlock()

	if c.role == entity.RoleAdmin && c.directory != nil {
		if err := c.ReloadEmployees(ctx); err != nil {
			c.logger.Warn("Initial employee load failed", zap.Error(err))
		}
	}

	_, loadErr := c.loader.Refresh(ctx, fetcher.ModeInteractive)
	if errors.Is(loadErr, fetcher.ErrStale) {
		loadErr = nil
	}

	if err := c.workers.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start auto refresh: %w", err)
	}
	c.logger.Info("Console started", zap.String("role", string(c.role)))
	return loadErr
}

// Close stops auto-refresh and drops pending searches. No state changes after Close returns.
func (c *Console) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	c.slipSearch.Stop()
	c.expenseSearch.Stop()
	c.employeeSearch.Stop()
	c.workers.StopAll()
	for _, fn := range unsubscribe {
		fn()
	}
	c.logger.Info("Console closed", zap.String("role", string(c.role)))
}

// Closed reports whether Close has run
func (c *Console) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Refresh performs an interactive reload
func (c *Console) Refresh(ctx context.Context) error {
	if c.Closed() {
		return ErrClosed
	}
	_, err := c.loader.Refresh(ctx, fetcher.ModeInteractive)
	if errors.Is(err, fetcher.ErrStale) {
		return nil
	}
	return err
}

// ReloadEmployees refreshes the employee directory
func (c *Console) ReloadEmployees(ctx context.Context) error {
	if c.directory == nil {
		return nil
	}
	employees, err := c.directory.Employees(ctx)
	if err != nil {
		if !apperr.IsUnauthorized(err) {
			c.notifier.Publish(ctx, notify.LevelError, apperr.UserMessage(err, actionEmployees))
		}
		return err
	}
	c.apply(func() { c.employees = employees })
	return nil
}

// SetSlipSearch updates the salary slip search box; the filter applies after the debounce delay
func (c *Console) SetSlipSearch(q string) { c.slipSearch.Push(q) }

// SetExpenseSearch updates the expense search box; the filter applies after the debounce delay
func (c *Console) SetExpenseSearch(q string) { c.expenseSearch.Push(q) }

// SetEmployeeSearch updates the employee search box; the filter applies after the debounce delay
func (c *Console) SetEmployeeSearch(q string) { c.employeeSearch.Push(q) }

// FlushSearches applies pending search text immediately
func (c *Console) FlushSearches() {
	c.slipSearch.Flush()
	c.expenseSearch.Flush()
	c.employeeSearch.Flush()
}

// ParseStatusFilter normalizes a status filter value. "" means "all".
func ParseStatusFilter(status string) (string, error) {
	if status == "" {
		return entity.StatusFilterAll, nil
	}
	if status != entity.StatusFilterAll && !entity.ExpenseStatus(status).IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, status)
	}
	return status, nil
}

// SetStatusFilter applies a status filter immediately
func (c *Console) SetStatusFilter(status string) error {
	status, err := ParseStatusFilter(status)
	if err != nil {
		return err
	}
	c.apply(func() { c.statusFilter = status })
	return nil
}

// Subscribe registers fn to run after every view change. The returned function unsubscribes.
func (c *Console) Subscribe(fn func()) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Expense looks up an expense in the current snapshot
func (c *Console) Expense(id int64) (*entity.ExpenseRequest, bool) {
	snap := c.loader.Current()
	if snap == nil {
		return nil, false
	}
	for i := range snap.Expenses {
		if snap.Expenses[i].ID == id {
			exp := snap.Expenses[i]
			return &exp, true
		}
	}
	return nil, false
}

// SalarySlip looks up a salary slip in the current snapshot
func (c *Console) SalarySlip(id int64) (*entity.SalarySlip, bool) {
	snap := c.loader.Current()
	if snap == nil {
		return nil, false
	}
	for i := range snap.SalarySlips {
		if snap.SalarySlips[i].ID == id {
			slip := snap.SalarySlips[i]
			return &slip, true
		}
	}
	return nil, false
}

// Employee looks up an employee in the loaded directory
func (c *Console) Employee(id int64) (*entity.Employee, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.employees {
		if c.employees[i].ID == id {
			emp := c.employees[i]
			return &emp, true
		}
	}
	return nil, false
}

// apply mutates view state under the lock and notifies listeners, unless closed
func (c *Console) apply(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn()
	c.mu.Unlock()
	c.changed()
}

func (c *Console) changed() {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	listeners := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

func (c *Console) onMutation(ctx context.Context, evt *event.Event) error {
	if c.Closed() {
		return nil
	}
	c.logger.Debug("Reloading after mutation", zap.String("event_type", evt.Type.String()))
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrClosed) {
		// The fetcher has already reported the failure to the user
		c.logger.Warn("Reload after mutation failed", zap.Error(err))
	}
	return nil
}

func (c *Console) onSessionExpired(context.Context, *event.Event) error {
	c.Close()
	return nil
}
