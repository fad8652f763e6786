package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSlip() SalarySlipForm {
	return SalarySlipForm{
		EmployeeID:  3,
		MonthYear:   "2025-01",
		BasicSalary: 3000,
		Allowances:  200,
		Deductions:  100,
		Tax:         300,
	}
}

func validExpense() ExpenseForm {
	return ExpenseForm{
		Amount:      150,
		Category:    entity.CategoryTravel,
		ExpenseDate: entity.NewDate(2025, time.January, 14),
		Description: "Train to client site",
	}
}

func fieldErrors(t *testing.T, err error) *Errors {
	t.Helper()
	var verrs *Errors
	require.True(t, errors.As(err, &verrs), "expected *Errors, got %v", err)
	return verrs
}

func TestSalarySlipForm_Valid(t *testing.T) {
	assert.NoError(t, Validate(validSlip()))
}

func TestSalarySlipForm_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *SalarySlipForm)
		field   string
		message string
	}{
		{"missing employee", func(f *SalarySlipForm) { f.EmployeeID = 0 }, "employee_id", "Employee is required"},
		{"missing month", func(f *SalarySlipForm) { f.MonthYear = "" }, "month_year", "Month-Year is required"},
		{"bad month", func(f *SalarySlipForm) { f.MonthYear = "2025-13" }, "month_year", "Month-Year must look like YYYY-MM"},
		{"zero basic", func(f *SalarySlipForm) { f.BasicSalary = 0 }, "basic_salary", "Basic salary is required"},
		{"negative basic", func(f *SalarySlipForm) { f.BasicSalary = -10 }, "basic_salary", "Amount must be greater than 0"},
		{"negative allowances", func(f *SalarySlipForm) { f.Allowances = -1 }, "allowances", "Amount cannot be negative"},
		{"negative deductions", func(f *SalarySlipForm) { f.Deductions = -1 }, "deductions", "Amount cannot be negative"},
		{"negative bonuses", func(f *SalarySlipForm) { f.Bonuses = -0.01 }, "bonuses", "Amount cannot be negative"},
		{"negative tax", func(f *SalarySlipForm) { f.Tax = -5 }, "tax", "Amount cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validSlip()
			tt.mutate(&form)

			verrs := fieldErrors(t, Validate(form))
			assert.Equal(t, tt.message, verrs.Field(tt.field))
			assert.Equal(t, 1, verrs.Len())
		})
	}
}

func TestSalarySlipForm_ZeroOptionalFieldsAllowed(t *testing.T) {
	form := SalarySlipForm{EmployeeID: 1, MonthYear: "2024-12", BasicSalary: 1}
	assert.NoError(t, Validate(form))
}

func TestSalarySlipForm_NetPreview(t *testing.T) {
	form := validSlip()
	assert.Equal(t, "2800", form.NetPreview().String())

	form.Bonuses = 50
	assert.Equal(t, "2850", form.NetPreview().String())

	form.Tax = 0
	form.Allowances = 0
	form.Deductions = 0
	form.Bonuses = 0
	assert.Equal(t, "3000", form.NetPreview().String())
}

func TestSalarySlipFormFrom(t *testing.T) {
	notes := "includes overtime"
	slip := &entity.SalarySlip{EmployeeID: 5, MonthYear: "2025-02", BasicSalary: 2000, Tax: 100, Notes: &notes}

	form := SalarySlipFormFrom(slip)
	assert.Equal(t, int64(5), form.EmployeeID)
	assert.Equal(t, "includes overtime", form.Notes)
	assert.Equal(t, "1900", form.NetPreview().String())
}

func TestExpenseForm_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *ExpenseForm)
		field   string
		message string
	}{
		{"missing amount", func(f *ExpenseForm) { f.Amount = 0 }, "amount", "Amount is required"},
		{"negative amount", func(f *ExpenseForm) { f.Amount = -3 }, "amount", "Amount must be greater than 0"},
		{"missing category", func(f *ExpenseForm) { f.Category = "" }, "category", "Category is required"},
		{"unknown category", func(f *ExpenseForm) { f.Category = "Gifts" }, "category", "Please choose a valid category"},
		{"missing date", func(f *ExpenseForm) { f.ExpenseDate = entity.Date{} }, "expense_date", "Expense date is required"},
		{"missing description", func(f *ExpenseForm) { f.Description = "" }, "description", "Description is required"},
		{"bad receipt url", func(f *ExpenseForm) { f.ReceiptURL = "not a url" }, "receipt_url", "Please enter a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validExpense()
			tt.mutate(&form)

			verrs := fieldErrors(t, Validate(form))
			assert.Equal(t, tt.message, verrs.Field(tt.field))
		})
	}
}

func TestExpenseForm_OptionalReceipt(t *testing.T) {
	form := validExpense()
	assert.NoError(t, Validate(form))

	form.ReceiptURL = "https://receipts.example.com/r/123.pdf"
	assert.NoError(t, Validate(form))
}

func TestErrors_ReportsEveryFieldInFormOrder(t *testing.T) {
	verrs := fieldErrors(t, Validate(ExpenseForm{}))

	assert.Equal(t, "Amount is required", verrs.First())
	assert.Equal(t, 4, verrs.Len())
	assert.Contains(t, verrs.Fields(), "description")
	assert.NotContains(t, verrs.Fields(), "receipt_url")
	assert.Contains(t, verrs.Error(), "amount: Amount is required")
}

func TestErrors_ImplementsFieldErrors(t *testing.T) {
	err := Validate(SalarySlipForm{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Employee is required", apperr.UserMessage(err, "creating the salary slip"))
}

func TestSignupAndLoginForms(t *testing.T) {
	assert.NoError(t, Validate(SignupForm{Email: "a@b.io", Password: "secret1", Role: entity.RoleEmployee}))

	verrs := fieldErrors(t, Validate(SignupForm{Email: "nope", Password: "123", Role: "owner"}))
	assert.Equal(t, "Invalid email address", verrs.Field("email"))
	assert.Equal(t, "Password must be at least 6 characters", verrs.Field("password"))
	assert.Equal(t, "Role must be admin or employee", verrs.Field("role"))

	verrs = fieldErrors(t, Validate(LoginForm{}))
	assert.Equal(t, "Email is required", verrs.Field("email"))
	assert.Equal(t, "Password is required", verrs.Field("password"))
}

func TestValidateField(t *testing.T) {
	form := validExpense()
	form.Amount = -1
	assert.Equal(t, "Amount must be greater than 0", ValidateField(form, "amount"))
	assert.Equal(t, "", ValidateField(form, "category"))
}
