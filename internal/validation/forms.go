package validation

import (
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SalarySlipForm is the create/edit form of a salary slip
type SalarySlipForm struct {
	EmployeeID  int64   `json:"employee_id" validate:"required"`
	MonthYear   string  `json:"month_year" validate:"required,payperiod"`
	BasicSalary float64 `json:"basic_salary" validate:"required,gt=0"`
	Allowances  float64 `json:"allowances" validate:"gte=0"`
	Deductions  float64 `json:"deductions" validate:"gte=0"`
	Bonuses     float64 `json:"bonuses" validate:"gte=0"`
	Tax         float64 `json:"tax" validate:"gte=0"`
	Notes       string  `json:"notes,omitempty"`
}

// SalarySlipFormFrom pre-fills the edit form from an existing slip
func SalarySlipFormFrom(slip *entity.SalarySlip) SalarySlipForm {
	return SalarySlipForm{
		EmployeeID:  slip.EmployeeID,
		MonthYear:   slip.MonthYear,
		BasicSalary: slip.BasicSalary,
		Allowances:  slip.Allowances,
		Deductions:  slip.Deductions,
		Bonuses:     slip.Bonuses,
		Tax:         slip.Tax,
		Notes:       slip.NoteText(),
	}
}

// Components returns the amounts the net preview is derived from
func (f SalarySlipForm) Components() entity.SalaryComponents {
	return entity.SalaryComponents{
		Basic:      f.BasicSalary,
		Allowances: f.Allowances,
		Bonuses:    f.Bonuses,
		Deductions: f.Deductions,
		Tax:        f.Tax,
	}
}

// NetPreview is the live net salary of the form's current fields
func (f SalarySlipForm) NetPreview() decimal.Decimal {
	return f.Components().Net()
}

// ExpenseForm is the employee's reimbursement request form
type ExpenseForm struct {
	Amount      float64         `json:"amount" validate:"required,gt=0"`
	Category    entity.Category `json:"category" validate:"required,category"`
	ExpenseDate entity.Date     `json:"expense_date" validate:"required"`
	Description string          `json:"description" validate:"required"`
	ReceiptURL  string          `json:"receipt_url,omitempty" validate:"omitempty,url"`
}

// SignupForm registers a new account
type SignupForm struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	FullName string      `json:"full_name,omitempty"`
	Role     entity.Role `json:"role" validate:"required,oneof=admin employee"`
}

// LoginForm carries credentials for a login
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
