package view

import (
	"sort"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Bucket is one group of an aggregation
type Bucket struct {
	Key   string          `json:"key"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// ExpensePredicate selects which expenses an aggregation includes
type ExpensePredicate func(*entity.ExpenseRequest) bool

// Approved includes only approved expenses
func Approved(exp *entity.ExpenseRequest) bool {
	return exp.Status == entity.ExpenseStatusApproved
}

// Any includes every expense
func Any(*entity.ExpenseRequest) bool {
	return true
}

type accumulator struct {
	index   map[string]int
	buckets []Bucket
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int)}
}

func (a *accumulator) add(key string, amount decimal.Decimal) {
	i, ok := a.index[key]
	if !ok {
		i = len(a.buckets)
		a.index[key] = i
		a.buckets = append(a.buckets, Bucket{Key: key, Total: decimal.Zero})
	}
	a.buckets[i].Total = a.buckets[i].Total.Add(amount)
	a.buckets[i].Count++
}

// sorted returns buckets ordered by key so results never depend on input order
func (a *accumulator) sorted() []Bucket {
	out := append([]Bucket{}, a.buckets...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SumByCategory totals expense amounts per category. Only categories present in the input appear.
func SumByCategory(expenses []entity.ExpenseRequest, include ExpensePredicate) []Bucket {
	acc := newAccumulator()
	for i := range expenses {
		if include(&expenses[i]) {
			acc.add(string(expenses[i].Category), decimal.NewFromFloat(expenses[i].Amount))
		}
	}
	return acc.sorted()
}

// SumByMonth totals expense amounts per expense month (YYYY-MM), ascending
func SumByMonth(expenses []entity.ExpenseRequest, include ExpensePredicate) []Bucket {
	acc := newAccumulator()
	for i := range expenses {
		if include(&expenses[i]) {
			acc.add(expenses[i].ExpenseDate.MonthKey(), decimal.NewFromFloat(expenses[i].Amount))
		}
	}
	return acc.sorted()
}

// SalaryTrend totals net salary per pay period, ascending by period
func SalaryTrend(slips []entity.SalarySlip) []Bucket {
	acc := newAccumulator()
	for i := range slips {
		acc.add(slips[i].MonthYear, decimal.NewFromFloat(slips[i].NetSalary))
	}
	return acc.sorted()
}

// TotalExpenses sums the amounts of the included expenses
func TotalExpenses(expenses []entity.ExpenseRequest, include ExpensePredicate) decimal.Decimal {
	total := decimal.Zero
	for i := range expenses {
		if include(&expenses[i]) {
			total = total.Add(decimal.NewFromFloat(expenses[i].Amount))
		}
	}
	return total
}

// ApprovalCounts counts expenses per review status
type ApprovalCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Total returns the number of counted expenses
func (c ApprovalCounts) Total() int {
	return c.Pending + c.Approved + c.Rejected
}

// CountByStatus counts expenses per status. Unknown statuses are ignored.
func CountByStatus(expenses []entity.ExpenseRequest) ApprovalCounts {
	var c ApprovalCounts
	for i := range expenses {
		switch expenses[i].Status {
		case entity.ExpenseStatusPending:
			c.Pending++
		case entity.ExpenseStatusApproved:
			c.Approved++
		case entity.ExpenseStatusRejected:
			c.Rejected++
		}
	}
	return c
}
