package mutation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/garyjia/payroll-console/internal/api"
	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/application/dispatcher"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/event"
	"github.com/garyjia/payroll-console/internal/domain/workflow"
	"github.com/garyjia/payroll-console/internal/fetcher"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/garyjia/payroll-console/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAdmin struct {
	CreateFunc func(ctx context.Context, p api.SalarySlipPayload) (*entity.SalarySlip, error)
	UpdateFunc func(ctx context.Context, id int64, p api.SalarySlipPayload) (*entity.SalarySlip, error)
	StatusFunc func(ctx context.Context, id int64, status entity.ExpenseStatus) (*entity.ExpenseRequest, error)
	calls      int
}

func (m *mockAdmin) CreateSalarySlip(ctx context.Context, p api.SalarySlipPayload) (*entity.SalarySlip, error) {
	m.calls++
	return m.CreateFunc(ctx, p)
}

func (m *mockAdmin) UpdateSalarySlip(ctx context.Context, id int64, p api.SalarySlipPayload) (*entity.SalarySlip, error) {
	m.calls++
	return m.UpdateFunc(ctx, id, p)
}

func (m *mockAdmin) UpdateExpenseStatus(ctx context.Context, id int64, status entity.ExpenseStatus) (*entity.ExpenseRequest, error) {
	m.calls++
	return m.StatusFunc(ctx, id, status)
}

type mockEmployee struct {
	CreateFunc func(ctx context.Context, p api.ExpensePayload) (*entity.ExpenseRequest, error)
}

func (m *mockEmployee) CreateExpense(ctx context.Context, p api.ExpensePayload) (*entity.ExpenseRequest, error) {
	return m.CreateFunc(ctx, p)
}

type fixedRole entity.Role

func (r fixedRole) Role() entity.Role { return entity.Role(r) }

type countingReloader struct {
	modes []fetcher.Mode
}

func (r *countingReloader) Refresh(_ context.Context, mode fetcher.Mode) (*fetcher.Snapshot, error) {
	r.modes = append(r.modes, mode)
	return &fetcher.Snapshot{}, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingPublisher) Publish(_ context.Context, level notify.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notify.Notification{Level: level, Message: message})
}

type fixture struct {
	d        *Dispatcher
	admin    *mockAdmin
	employee *mockEmployee
	reloader *countingReloader
	pub      *recordingPublisher
	events   []event.Type
}

func newFixture(role entity.Role) *fixture {
	f := &fixture{
		admin: &mockAdmin{
			CreateFunc: func(_ context.Context, p api.SalarySlipPayload) (*entity.SalarySlip, error) {
				return &entity.SalarySlip{ID: 10, EmployeeID: p.EmployeeID, MonthYear: p.MonthYear, NetSalary: 2800}, nil
			},
			UpdateFunc: func(_ context.Context, id int64, p api.SalarySlipPayload) (*entity.SalarySlip, error) {
				return &entity.SalarySlip{ID: id, EmployeeID: p.EmployeeID, MonthYear: p.MonthYear}, nil
			},
			StatusFunc: func(_ context.Context, id int64, status entity.ExpenseStatus) (*entity.ExpenseRequest, error) {
				return &entity.ExpenseRequest{ID: id, Status: status}, nil
			},
		},
		employee: &mockEmployee{CreateFunc: func(_ context.Context, p api.ExpensePayload) (*entity.ExpenseRequest, error) {
			return &entity.ExpenseRequest{ID: 77, Amount: p.Amount, Category: p.Category, Status: entity.ExpenseStatusPending}, nil
		}},
		reloader: &countingReloader{},
		pub:      &recordingPublisher{},
	}
	events := dispatcher.New()
	for _, t := range []event.Type{event.TypeSalarySlipCreated, event.TypeSalarySlipUpdated, event.TypeExpenseSubmitted, event.TypeExpenseApproved, event.TypeExpenseRejected} {
		events.Subscribe(t, "recorder", func(_ context.Context, evt *event.Event) error {
			f.events = append(f.events, evt.Type)
			return nil
		})
	}
	f.d = New(Deps{
		Admin:    f.admin,
		Employee: f.employee,
		Session:  fixedRole(role),
		Reloader: f.reloader,
		Events:   events,
		Notifier: f.pub,
		Logger:   zap.NewNop(),
	})
	return f
}

func validSlipForm() validation.SalarySlipForm {
	return validation.SalarySlipForm{EmployeeID: 3, MonthYear: "2024-03", BasicSalary: 3000, Allowances: 200, Deductions: 100, Tax: 300}
}

func pendingExpense() *entity.ExpenseRequest {
	return &entity.ExpenseRequest{ID: 5, EmployeeID: 3, Category: entity.CategoryTravel, Amount: 40, Status: entity.ExpenseStatusPending}
}

func TestCreateSalarySlip_Success(t *testing.T) {
	f := newFixture(entity.RoleAdmin)

	slip, err := f.d.CreateSalarySlip(context.Background(), validSlipForm())
	require.NoError(t, err)
	assert.Equal(t, int64(10), slip.ID)
	assert.Equal(t, []event.Type{event.TypeSalarySlipCreated}, f.events)
	assert.Equal(t, []fetcher.Mode{fetcher.ModeInteractive}, f.reloader.modes)
	require.Len(t, f.pub.sent, 1)
	assert.Equal(t, notify.LevelSuccess, f.pub.sent[0].Level)
	assert.Equal(t, "Salary slip created successfully", f.pub.sent[0].Message)
}

func TestCreateSalarySlip_ValidationNeverCallsAPI(t *testing.T) {
	f := newFixture(entity.RoleAdmin)
	form := validSlipForm()
	form.BasicSalary = 0
	form.Tax = -5

	_, err := f.d.CreateSalarySlip(context.Background(), form)
	var verrs *validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Basic salary is required", verrs.Field("basic_salary"))
	assert.NotEmpty(t, verrs.Field("tax"))
	assert.Zero(t, f.admin.calls)
	assert.Empty(t, f.reloader.modes)
	assert.Empty(t, f.events)
}

func TestCreateSalarySlip_EmployeeRefusedLocally(t *testing.T) {
	f := newFixture(entity.RoleEmployee)

	_, err := f.d.CreateSalarySlip(context.Background(), validSlipForm())
	assert.ErrorIs(t, err, ErrAdminOnly)
	assert.Equal(t, apperr.KindLocal, apperr.KindOf(err))
	assert.Zero(t, f.admin.calls)
}

func TestCreateSalarySlip_ServerErrorSurfacesOneMessage(t *testing.T) {
	f := newFixture(entity.RoleAdmin)
	f.admin.CreateFunc = func(context.Context, api.SalarySlipPayload) (*entity.SalarySlip, error) {
		return nil, &apperr.Error{Kind: apperr.KindServer, Status: 500}
	}

	_, err := f.d.CreateSalarySlip(context.Background(), validSlipForm())
	require.Error(t, err)
	require.Len(t, f.pub.sent, 1)
	assert.Equal(t, notify.LevelError, f.pub.sent[0].Level)
	assert.Equal(t, "Something went wrong while creating the salary slip. Please try again.", f.pub.sent[0].Message)
	assert.Empty(t, f.reloader.modes)
}

func TestUpdateSalarySlip_SendsNotes(t *testing.T) {
	f := newFixture(entity.RoleAdmin)
	var sent api.SalarySlipPayload
	f.admin.UpdateFunc = func(_ context.Context, id int64, p api.SalarySlipPayload) (*entity.SalarySlip, error) {
		sent = p
		return &entity.SalarySlip{ID: id}, nil
	}
	form := validSlipForm()
	form.Notes = "March bonus"

	slip, err := f.d.UpdateSalarySlip(context.Background(), 4, form)
	require.NoError(t, err)
	assert.Equal(t, int64(4), slip.ID)
	require.NotNil(t, sent.Notes)
	assert.Equal(t, "March bonus", *sent.Notes)
	assert.Equal(t, []event.Type{event.TypeSalarySlipUpdated}, f.events)
}

func TestSubmitExpense(t *testing.T) {
	f := newFixture(entity.RoleEmployee)
	date, err := entity.ParseDate("2024-03-02")
	require.NoError(t, err)

	exp, err := f.d.SubmitExpense(context.Background(), validation.ExpenseForm{
		Amount: 40, Category: entity.CategoryTravel, ExpenseDate: date, Description: "Taxi",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), exp.ID)
	assert.Equal(t, []event.Type{event.TypeExpenseSubmitted}, f.events)

	admin := newFixture(entity.RoleAdmin)
	_, err = admin.d.SubmitExpense(context.Background(), validation.ExpenseForm{})
	assert.ErrorIs(t, err, ErrEmployeeOnly)
}

func TestSetStatus_Approve(t *testing.T) {
	f := newFixture(entity.RoleAdmin)
	var prompt string
	confirm := ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return true, nil
	})

	outcome, err := f.d.SetStatus(context.Background(), pendingExpense(), entity.ExpenseStatusApproved, confirm)
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, "Approve expense #5 (Travel, 40.00) from employee 3?", prompt)
	assert.Equal(t, []event.Type{event.TypeExpenseApproved}, f.events)
	assert.Equal(t, "Expense approved successfully", f.pub.sent[0].Message)
	assert.Len(t, f.reloader.modes, 1)
}

func TestSetStatus_RejectWarns(t *testing.T) {
	f := newFixture(entity.RoleAdmin)

	outcome, err := f.d.SetStatus(context.Background(), pendingExpense(), entity.ExpenseStatusRejected, AlwaysConfirm)
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, notify.LevelWarning, f.pub.sent[0].Level)
	assert.Equal(t, "Expense rejected", f.pub.sent[0].Message)
	assert.Equal(t, []event.Type{event.TypeExpenseRejected}, f.events)
}

func TestSetStatus_DeclinedHasNoSideEffect(t *testing.T) {
	f := newFixture(entity.RoleAdmin)
	decline := ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })

	outcome, err := f.d.SetStatus(context.Background(), pendingExpense(), entity.ExpenseStatusApproved, decline)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, outcome)
	assert.Zero(t, f.admin.calls)
	assert.Empty(t, f.pub.sent)
	assert.Empty(t, f.reloader.modes)
	assert.Empty(t, f.events)
}

func TestSetStatus_TerminalRefusedBeforeConfirm(t *testing.T) {
	f := newFixture(entity.RoleAdmin)
	exp := pendingExpense()
	exp.Status = entity.ExpenseStatusApproved
	confirm := ConfirmFunc(func(context.Context, string) (bool, error) {
		t.Fatal("must not ask for confirmation")
		return false, nil
	})

	outcome, err := f.d.SetStatus(context.Background(), exp, entity.ExpenseStatusRejected, confirm)
	assert.Equal(t, Cancelled, outcome)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Zero(t, f.admin.calls)
	require.Len(t, f.pub.sent, 1)
	assert.Equal(t, "Expense #5 has already been approved.", f.pub.sent[0].Message)
}

func TestSetStatus_ConfirmerError(t *testing.T) {
	f := newFixture(entity.RoleAdmin)
	boom := errors.New("stdin closed")

	outcome, err := f.d.SetStatus(context.Background(), pendingExpense(), entity.ExpenseStatusApproved,
		ConfirmFunc(func(context.Context, string) (bool, error) { return false, boom }))
	assert.Equal(t, Cancelled, outcome)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.admin.calls)
}

func TestSetStatus_UnauthorizedIsNotToasted(t *testing.T) {
	f := newFixture(entity.RoleAdmin)
	f.admin.StatusFunc = func(context.Context, int64, entity.ExpenseStatus) (*entity.ExpenseRequest, error) {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Status: 401}
	}

	_, err := f.d.SetStatus(context.Background(), pendingExpense(), entity.ExpenseStatusApproved, AlwaysConfirm)
	assert.True(t, apperr.IsUnauthorized(err))
	assert.Empty(t, f.pub.sent)
}

func TestNoSession(t *testing.T) {
	d := New(Deps{})
	_, err := d.CreateSalarySlip(context.Background(), validSlipForm())
	assert.ErrorIs(t, err, ErrNoSession)
}
