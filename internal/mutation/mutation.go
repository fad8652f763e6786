// Package mutation performs the console's writes: validate locally, check the role and the
// expense state machine, confirm destructive decisions, call the API, then report and reload.
// Nothing is merged into local state; the next snapshot is the only source of truth.
package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/payroll-console/internal/api"
	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/application/dispatcher"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/event"
	"github.com/garyjia/payroll-console/internal/domain/workflow"
	"github.com/garyjia/payroll-console/internal/fetcher"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/garyjia/payroll-console/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrAdminOnly    = errors.New("only admins can perform this action")
	ErrEmployeeOnly = errors.New("only employees can submit expenses")
	ErrNoSession    = errors.New("not logged in")
)

// Outcome reports whether a confirmed mutation actually ran
type Outcome int

const (
	Applied Outcome = iota
	Cancelled
)

func (o Outcome) String() string {
	if o == Cancelled {
		return "cancelled"
	}
	return "applied"
}

// AdminWriter is the admin write surface of the API
type AdminWriter interface {
	CreateSalarySlip(ctx context.Context, p api.SalarySlipPayload) (*entity.SalarySlip, error)
	UpdateSalarySlip(ctx context.Context, id int64, p api.SalarySlipPayload) (*entity.SalarySlip, error)
	UpdateExpenseStatus(ctx context.Context, id int64, status entity.ExpenseStatus) (*entity.ExpenseRequest, error)
}

// EmployeeWriter is the employee write surface of the API
type EmployeeWriter interface {
	CreateExpense(ctx context.Context, p api.ExpensePayload) (*entity.ExpenseRequest, error)
}

// RoleSource tells the dispatcher who is acting
type RoleSource interface {
	Role() entity.Role
}

// Reloader refreshes the data after a successful write
type Reloader interface {
	Refresh(ctx context.Context, mode fetcher.Mode) (*fetcher.Snapshot, error)
}

// Confirmer asks the user to confirm a decision. It blocks until the user answers.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// AlwaysConfirm approves every prompt; used when the caller already confirmed (e.g. --yes)
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Deps wires a Dispatcher
type Deps struct {
	Admin    AdminWriter
	Employee EmployeeWriter
	Session  RoleSource
	Reloader Reloader
	Events   dispatcher.Dispatcher
	Notifier notify.Publisher
	Logger   *zap.Logger
}

// Dispatcher executes mutations
type Dispatcher struct {
	admin    AdminWriter
	employee EmployeeWriter
	session  RoleSource
	reloader Reloader
	events   dispatcher.Dispatcher
	notifier notify.Publisher
	logger   *zap.Logger
}

// New creates a mutation dispatcher
func New(deps Deps) *Dispatcher {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Discard{}
	}
	return &Dispatcher{
		admin:    deps.Admin,
		employee: deps.Employee,
		session:  deps.Session,
		reloader: deps.Reloader,
		events:   deps.Events,
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}
}

// CreateSalarySlip validates and submits a new slip (admin only)
func (d *Dispatcher) CreateSalarySlip(ctx context.Context, form validation.SalarySlipForm) (*entity.SalarySlip, error) {
	const action = "creating the salary slip"
	if err := d.requireRole(entity.RoleAdmin, ErrAdminOnly); err != nil {
		return nil, d.fail(ctx, action, err)
	}
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	slip, err := d.admin.CreateSalarySlip(ctx, slipPayload(form))
	if err != nil {
		return nil, d.fail(ctx, action, err)
	}

	d.succeed(ctx, "Salary slip created successfully",
		event.New(event.TypeSalarySlipCreated, slip.ID, map[string]any{
			"employee_id": slip.EmployeeID,
			"month_year":  slip.MonthYear,
			"net_salary":  slip.NetSalary,
		}))
	return slip, nil
}

// UpdateSalarySlip validates and replaces an existing slip (admin only)
func (d *Dispatcher) UpdateSalarySlip(ctx context.Context, id int64, form validation.SalarySlipForm) (*entity.SalarySlip, error) {
	const action = "updating the salary slip"
	if err := d.requireRole(entity.RoleAdmin, ErrAdminOnly); err != nil {
		return nil, d.fail(ctx, action, err)
	}
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	slip, err := d.admin.UpdateSalarySlip(ctx, id, slipPayload(form))
	if err != nil {
		return nil, d.fail(ctx, action, err)
	}

	d.succeed(ctx, "Salary slip updated successfully",
		event.New(event.TypeSalarySlipUpdated, slip.ID, map[string]any{
			"employee_id": slip.EmployeeID,
			"month_year":  slip.MonthYear,
			"net_salary":  slip.NetSalary,
		}))
	return slip, nil
}

// SubmitExpense validates and submits a reimbursement request (employee only)
func (d *Dispatcher) SubmitExpense(ctx context.Context, form validation.ExpenseForm) (*entity.ExpenseRequest, error) {
	const action = "submitting the expense"
	if err := d.requireRole(entity.RoleEmployee, ErrEmployeeOnly); err != nil {
		return nil, d.fail(ctx, action, err)
	}
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	p := api.ExpensePayload{
		Amount:      form.Amount,
		Category:    form.Category,
		Description: form.Description,
		ExpenseDate: form.ExpenseDate,
	}
	if form.ReceiptURL != "" {
		url := form.ReceiptURL
		p.ReceiptURL = &url
	}

	exp, err := d.employee.CreateExpense(ctx, p)
	if err != nil {
		return nil, d.fail(ctx, action, err)
	}

	d.succeed(ctx, "Expense submitted successfully",
		event.New(event.TypeExpenseSubmitted, exp.ID, map[string]any{
			"category": string(exp.Category),
			"amount":   exp.Amount,
		}))
	return exp, nil
}

// SetStatus approves or rejects a pending expense (admin only). The state machine is checked
// before the user is asked; a declined confirmation returns Cancelled without touching the API.
func (d *Dispatcher) SetStatus(ctx context.Context, exp *entity.ExpenseRequest, target entity.ExpenseStatus, confirmer Confirmer) (Outcome, error) {
	const action = "updating the expense status"
	if err := d.requireRole(entity.RoleAdmin, ErrAdminOnly); err != nil {
		return Cancelled, d.fail(ctx, action, err)
	}
	if err := workflow.CheckTransition(exp.Status, target); err != nil {
		return Cancelled, d.fail(ctx, action, transitionError(exp, target, err))
	}

	if confirmer == nil {
		confirmer = AlwaysConfirm
	}
	ok, err := confirmer.Confirm(ctx, ConfirmPrompt(exp, target))
	if err != nil {
		return Cancelled, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		d.logger.Info("Status change cancelled",
			zap.Int64("expense_id", exp.ID),
			zap.String("target", string(target)))
		return Cancelled, nil
	}

	updated, err := d.admin.UpdateExpenseStatus(ctx, exp.ID, target)
	if err != nil {
		return Cancelled, d.fail(ctx, action, err)
	}

	evtType := event.TypeExpenseApproved
	msg := "Expense approved successfully"
	level := notify.LevelSuccess
	if target == entity.ExpenseStatusRejected {
		evtType = event.TypeExpenseRejected
		msg = "Expense rejected"
		level = notify.LevelWarning
	}
	d.notifier.Publish(ctx, level, msg)
	d.afterWrite(ctx, event.New(evtType, updated.ID, map[string]any{
		"employee_id": exp.EmployeeID,
		"category":    string(exp.Category),
		"amount":      exp.Amount,
	}))
	return Applied, nil
}

// ConfirmPrompt is the question asked before a review decision
func ConfirmPrompt(exp *entity.ExpenseRequest, target entity.ExpenseStatus) string {
	verb := "Approve"
	if target == entity.ExpenseStatusRejected {
		verb = "Reject"
	}
	return fmt.Sprintf("%s expense #%d (%s, %s) from employee %d?",
		verb, exp.ID, exp.Category, formatMoney(exp.Amount), exp.EmployeeID)
}

func transitionError(exp *entity.ExpenseRequest, target entity.ExpenseStatus, err error) error {
	detail := fmt.Sprintf("Cannot change expense #%d from %s to %s.", exp.ID, exp.Status, target)
	if exp.Status.IsTerminal() {
		detail = fmt.Sprintf("Expense #%d has already been %s.", exp.ID, exp.Status)
	}
	return &apperr.Error{Kind: apperr.KindLocal, Detail: detail, Err: err}
}

func (d *Dispatcher) requireRole(role entity.Role, denied error) error {
	if d.session == nil || d.session.Role() == "" {
		return apperr.Local(ErrNoSession)
	}
	if d.session.Role() != role {
		return apperr.Local(denied)
	}
	return nil
}

// fail classifies err, publishes its single user message and returns the classified error
func (d *Dispatcher) fail(ctx context.Context, action string, err error) error {
	d.logger.Warn("Mutation failed", zap.String("action", action), zap.Error(err))
	// A 401 is reported once by the session teardown
	if !apperr.IsUnauthorized(err) {
		d.notifier.Publish(ctx, notify.LevelError, apperr.UserMessage(err, action))
	}
	return err
}

func (d *Dispatcher) succeed(ctx context.Context, msg string, evt *event.Event) {
	d.notifier.Publish(ctx, notify.LevelSuccess, msg)
	d.afterWrite(ctx, evt)
}

func (d *Dispatcher) afterWrite(ctx context.Context, evt *event.Event) {
	d.logger.Info("Mutation applied",
		zap.String("event_type", evt.Type.String()),
		zap.Int64("subject_id", evt.SubjectID))

	if d.events != nil {
		if err := d.events.Dispatch(ctx, evt); err != nil {
			d.logger.Warn("Event handler failed", zap.Error(err))
		}
	}
	if d.reloader != nil {
		if _, err := d.reloader.Refresh(ctx, fetcher.ModeInteractive); err != nil && !errors.Is(err, fetcher.ErrStale) {
			d.logger.Warn("Reload after mutation failed", zap.Error(err))
		}
	}
}

func slipPayload(form validation.SalarySlipForm) api.SalarySlipPayload {
	p := api.SalarySlipPayload{
		EmployeeID:  form.EmployeeID,
		MonthYear:   form.MonthYear,
		BasicSalary: form.BasicSalary,
		Allowances:  form.Allowances,
		Deductions:  form.Deductions,
		Bonuses:     form.Bonuses,
		Tax:         form.Tax,
	}
	if form.Notes != "" {
		notes := form.Notes
		p.Notes = &notes
	}
	return p
}

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
