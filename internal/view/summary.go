package view

import (
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Summary bundles the aggregate breakdowns shown on a dashboard
type Summary struct {
	ApprovedByCategory []Bucket           `json:"approved_by_category"`
	ExpensesByCategory []Bucket           `json:"expenses_by_category"`
	ExpensesByMonth    []Bucket           `json:"expenses_by_month"`
	SalaryTrend        []Bucket           `json:"salary_trend"`
	Approvals          ApprovalCounts     `json:"approvals"`
	ApprovedTotal      decimal.Decimal    `json:"approved_total"`
	ExpenseTotal       decimal.Decimal    `json:"expense_total"`
	LatestSlip         *entity.SalarySlip `json:"latest_slip,omitempty"`
}

// BuildSummary derives the dashboard aggregates from fetched collections
func BuildSummary(slips []entity.SalarySlip, expenses []entity.ExpenseRequest) Summary {
	return Summary{
		ApprovedByCategory: SumByCategory(expenses, Approved),
		ExpensesByCategory: SumByCategory(expenses, Any),
		ExpensesByMonth:    SumByMonth(expenses, Any),
		SalaryTrend:        SalaryTrend(slips),
		Approvals:          CountByStatus(expenses),
		ApprovedTotal:      TotalExpenses(expenses, Approved),
		ExpenseTotal:       TotalExpenses(expenses, Any),
		LatestSlip:         latestSlip(slips),
	}
}

// latestSlip picks the slip with the greatest pay period; ties keep the first seen
func latestSlip(slips []entity.SalarySlip) *entity.SalarySlip {
	var latest *entity.SalarySlip
	for i := range slips {
		if latest == nil || slips[i].MonthYear > latest.MonthYear {
			latest = &slips[i]
		}
	}
	if latest == nil {
		return nil
	}
	cp := *latest
	return &cp
}
