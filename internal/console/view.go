package console

import (
	"time"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/workflow"
	"github.com/garyjia/payroll-console/internal/fetcher"
	"github.com/garyjia/payroll-console/internal/view"
)

// ExpenseRow is an expense as listed, with the review actions the viewer may take on it
type ExpenseRow struct {
	entity.ExpenseRequest
	Actions []workflow.Trigger `json:"actions,omitempty"`
}

// View is everything the presentation layer renders for one role
type View struct {
	Role           entity.Role           `json:"role"`
	SalarySlips    []entity.SalarySlip   `json:"salary_slips"`
	Expenses       []ExpenseRow          `json:"expenses"`
	Employees      []entity.Employee     `json:"employees,omitempty"`
	Summary        view.Summary          `json:"summary"`
	Stats          entity.DashboardStats `json:"stats"`
	SlipQuery      string                `json:"slip_query"`
	ExpenseQuery   string                `json:"expense_query"`
	EmployeeQuery  string                `json:"employee_query"`
	StatusFilter   string                `json:"status_filter"`
	SlipsEmpty     string                `json:"slips_empty,omitempty"`
	ExpensesEmpty  string                `json:"expenses_empty,omitempty"`
	EmployeesEmpty string                `json:"employees_empty,omitempty"`
	Loaded         bool                  `json:"loaded"`
	Loading        bool                  `json:"loading"`
	Degraded       bool                  `json:"degraded"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Seq            uint64                `json:"seq"`
}

// Filters are the search and status inputs a view is derived with
type Filters struct {
	SlipQuery     string
	ExpenseQuery  string
	EmployeeQuery string
	StatusFilter  string
}

// View derives the current view from the snapshot and filters
func (c *Console) View() View {
	c.mu.RLock()
	filters := Filters{
		SlipQuery:     c.slipQuery,
		ExpenseQuery:  c.expenseQuery,
		EmployeeQuery: c.employeeQuery,
		StatusFilter:  c.statusFilter,
	}
	employees := c.employees
	c.mu.RUnlock()

	v := BuildView(c.role, c.loader.Current(), employees, filters)
	v.Loading = c.loader.Loading()
	v.Degraded = c.loader.Degraded()
	return v
}

// BuildView derives a view for role. snap may be nil before the first load; employees are
// only listed for admins.
func BuildView(role entity.Role, snap *fetcher.Snapshot, employees []entity.Employee, f Filters) View {
	if f.StatusFilter == "" {
		f.StatusFilter = entity.StatusFilterAll
	}
	v := View{
		Role:          role,
		SlipQuery:     f.SlipQuery,
		ExpenseQuery:  f.ExpenseQuery,
		EmployeeQuery: f.EmployeeQuery,
		StatusFilter:  f.StatusFilter,
	}

	if role == entity.RoleAdmin {
		v.Employees = view.FilterEmployees(employees, v.EmployeeQuery)
		v.EmployeesEmpty = emptyText(len(employees), len(v.Employees), msgNoEmployees)
	}

	if snap == nil {
		v.SalarySlips = []entity.SalarySlip{}
		v.Expenses = []ExpenseRow{}
		return v
	}

	v.Loaded = true
	v.Seq = snap.Seq
	v.UpdatedAt = snap.FetchedAt
	v.Stats = snap.Stats
	v.Summary = view.BuildSummary(snap.SalarySlips, snap.Expenses)
	v.SalarySlips = view.FilterSalarySlips(snap.SalarySlips, v.SlipQuery)

	filtered := view.FilterExpenses(snap.Expenses, v.ExpenseQuery, v.StatusFilter)
	v.Expenses = make([]ExpenseRow, 0, len(filtered))
	for _, exp := range filtered {
		row := ExpenseRow{ExpenseRequest: exp}
		if role == entity.RoleAdmin {
			row.Actions = workflow.AvailableActions(exp.Status)
		}
		v.Expenses = append(v.Expenses, row)
	}

	v.SlipsEmpty = emptyText(len(snap.SalarySlips), len(v.SalarySlips), emptySlips(role))
	v.ExpensesEmpty = emptyText(len(snap.Expenses), len(v.Expenses), emptyExpenses(role))
	return v
}
