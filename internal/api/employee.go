package api

import (
	"context"

	"github.com/garyjia/payroll-console/internal/domain/entity"
)

// ExpensePayload is the body of an expense submission
type ExpensePayload struct {
	Amount      float64         `json:"amount"`
	Category    entity.Category `json:"category"`
	Description string          `json:"description"`
	ExpenseDate entity.Date     `json:"expense_date"`
	ReceiptURL  *string         `json:"receipt_url,omitempty"`
}

// EmployeeAPI covers the /employee endpoints, scoped to the calling user
type EmployeeAPI struct {
	c *Client
}

// NewEmployeeAPI creates the employee endpoint group
func NewEmployeeAPI(c *Client) *EmployeeAPI {
	return &EmployeeAPI{c: c}
}

func (e *EmployeeAPI) CreateExpense(ctx context.Context, p ExpensePayload) (*entity.ExpenseRequest, error) {
	var exp entity.ExpenseRequest
	if err := e.c.post(ctx, "/employee/expenses", p, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

func (e *EmployeeAPI) Expenses(ctx context.Context) ([]entity.ExpenseRequest, error) {
	var out []entity.ExpenseRequest
	if err := e.c.get(ctx, "/employee/expenses", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *EmployeeAPI) SalarySlips(ctx context.Context) ([]entity.SalarySlip, error) {
	var out []entity.SalarySlip
	if err := e.c.get(ctx, "/employee/salary-slips", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *EmployeeAPI) DashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	var stats entity.DashboardStats
	if err := e.c.get(ctx, "/employee/dashboard-stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
