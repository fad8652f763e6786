package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/garyjia/payroll-console/internal/domain/entity"
)

// SalarySlipPayload is the create/update body for a salary slip
type SalarySlipPayload struct {
	EmployeeID  int64   `json:"employee_id"`
	MonthYear   string  `json:"month_year"`
	BasicSalary float64 `json:"basic_salary"`
	Allowances  float64 `json:"allowances"`
	Deductions  float64 `json:"deductions"`
	Bonuses     float64 `json:"bonuses"`
	Tax         float64 `json:"tax"`
	Notes       *string `json:"notes,omitempty"`
}

type statusPayload struct {
	Status entity.ExpenseStatus `json:"status"`
}

// AdminAPI covers the /admin endpoints
type AdminAPI struct {
	c *Client
}

// NewAdminAPI creates the admin endpoint group
func NewAdminAPI(c *Client) *AdminAPI {
	return &AdminAPI{c: c}
}

func (a *AdminAPI) CreateSalarySlip(ctx context.Context, p SalarySlipPayload) (*entity.SalarySlip, error) {
	var slip entity.SalarySlip
	if err := a.c.post(ctx, "/admin/salary-slips", p, &slip); err != nil {
		return nil, err
	}
	return &slip, nil
}

func (a *AdminAPI) UpdateSalarySlip(ctx context.Context, id int64, p SalarySlipPayload) (*entity.SalarySlip, error) {
	var slip entity.SalarySlip
	path := fmt.Sprintf("/admin/salary-slips/%d", id)
	if err := a.c.doJSON(ctx, http.MethodPut, path, p, &slip); err != nil {
		return nil, err
	}
	return &slip, nil
}

func (a *AdminAPI) SalarySlips(ctx context.Context) ([]entity.SalarySlip, error) {
	var out []entity.SalarySlip
	if err := a.c.get(ctx, "/admin/salary-slips", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *AdminAPI) Expenses(ctx context.Context) ([]entity.ExpenseRequest, error) {
	var out []entity.ExpenseRequest
	if err := a.c.get(ctx, "/admin/expenses", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateExpenseStatus records a review decision
func (a *AdminAPI) UpdateExpenseStatus(ctx context.Context, id int64, status entity.ExpenseStatus) (*entity.ExpenseRequest, error) {
	var exp entity.ExpenseRequest
	path := fmt.Sprintf("/admin/expenses/%d", id)
	if err := a.c.doJSON(ctx, http.MethodPatch, path, statusPayload{Status: status}, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (a *AdminAPI) DashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	var stats entity.DashboardStats
	if err := a.c.get(ctx, "/admin/dashboard-stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
