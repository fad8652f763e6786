// Package view derives what the console displays from a fetched snapshot: filtered lists and
// aggregate breakdowns. Everything here is a pure function of its inputs.
package view

import (
	"strconv"
	"strings"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount the way it is matched by search: shortest decimal form
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func containsAny(query string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// MatchSalarySlip reports whether a slip matches a normalized query
func MatchSalarySlip(slip *entity.SalarySlip, query string) bool {
	return containsAny(query,
		id(slip.ID),
		id(slip.EmployeeID),
		slip.MonthYear,
		slip.NoteText(),
		FormatAmount(slip.NetSalary),
	)
}

// MatchExpense reports whether an expense matches a normalized query
func MatchExpense(exp *entity.ExpenseRequest, query string) bool {
	return containsAny(query,
		id(exp.ID),
		id(exp.EmployeeID),
		string(exp.Category),
		exp.Description,
		FormatAmount(exp.Amount),
		exp.ExpenseDate.String(),
	)
}

// MatchEmployee reports whether an employee matches a normalized query
func MatchEmployee(emp *entity.Employee, query string) bool {
	name := ""
	if emp.FullName != nil {
		name = *emp.FullName
	}
	return containsAny(query, name, emp.Email, id(emp.ID), string(emp.Role))
}

// MatchStatus is the status predicate; "all" and "" accept everything
func MatchStatus(exp *entity.ExpenseRequest, status string) bool {
	if status == "" || status == entity.StatusFilterAll {
		return true
	}
	return string(exp.Status) == status
}

// FilterSalarySlips returns the slips matching query, preserving input order
func FilterSalarySlips(slips []entity.SalarySlip, query string) []entity.SalarySlip {
	q := normalize(query)
	out := make([]entity.SalarySlip, 0, len(slips))
	for i := range slips {
		if q == "" || MatchSalarySlip(&slips[i], q) {
			out = append(out, slips[i])
		}
	}
	return out
}

// FilterExpenses applies the status predicate and then the text query, preserving input order
func FilterExpenses(expenses []entity.ExpenseRequest, query, status string) []entity.ExpenseRequest {
	q := normalize(query)
	out := make([]entity.ExpenseRequest, 0, len(expenses))
	for i := range expenses {
		exp := &expenses[i]
		if !MatchStatus(exp, status) {
			continue
		}
		if q == "" || MatchExpense(exp, q) {
			out = append(out, *exp)
		}
	}
	return out
}

// FilterEmployees returns the employees matching query, preserving input order
func FilterEmployees(employees []entity.Employee, query string) []entity.Employee {
	q := normalize(query)
	out := make([]entity.Employee, 0, len(employees))
	for i := range employees {
		if q == "" || MatchEmployee(&employees[i], q) {
			out = append(out, employees[i])
		}
	}
	return out
}
