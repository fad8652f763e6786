package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalarySlip is one employee's compensation record for one pay period
type SalarySlip struct {
	ID          int64     `json:"id"`
	EmployeeID  int64     `json:"employee_id"`
	MonthYear   string    `json:"month_year"` // YYYY-MM
	BasicSalary float64   `json:"basic_salary"`
	Allowances  float64   `json:"allowances"`
	Deductions  float64   `json:"deductions"`
	Bonuses     float64   `json:"bonuses"`
	Tax         float64   `json:"tax"`
	NetSalary   float64   `json:"net_salary"`
	Notes       *string   `json:"notes"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoteText returns the notes or an empty string
func (s *SalarySlip) NoteText() string {
	if s.Notes == nil {
		return ""
	}
	return *s.Notes
}

// Components returns the inputs of the net salary calculation
func (s *SalarySlip) Components() SalaryComponents {
	return SalaryComponents{
		Basic:      s.BasicSalary,
		Allowances: s.Allowances,
		Bonuses:    s.Bonuses,
		Deductions: s.Deductions,
		Tax:        s.Tax,
	}
}

// SalaryComponents are the editable amounts a net salary is derived from
type SalaryComponents struct {
	Basic      float64
	Allowances float64
	Bonuses    float64
	Deductions float64
	Tax        float64
}

// Net returns basic + allowances + bonuses - deductions - tax using exact decimal arithmetic
func (c SalaryComponents) Net() decimal.Decimal {
	return decimal.NewFromFloat(c.Basic).
		Add(decimal.NewFromFloat(c.Allowances)).
		Add(decimal.NewFromFloat(c.Bonuses)).
		Sub(decimal.NewFromFloat(c.Deductions)).
		Sub(decimal.NewFromFloat(c.Tax))
}

// NetFloat returns Net rounded to cents
func (c SalaryComponents) NetFloat() float64 {
	return c.Net().Round(2).InexactFloat64()
}
