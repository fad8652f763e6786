package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalaryComponents_Net(t *testing.T) {
	tests := []struct {
		name string
		c    SalaryComponents
		want string
	}{
		{"typical slip", SalaryComponents{Basic: 3000, Allowances: 200, Deductions: 100, Tax: 300}, "2800"},
		{"optional fields zero", SalaryComponents{Basic: 1500}, "1500"},
		{"fractional amounts", SalaryComponents{Basic: 0.1, Allowances: 0.2}, "0.3"},
		{"bonus and tax", SalaryComponents{Basic: 4200.50, Bonuses: 300.25, Tax: 420.05}, "4080.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Net().String())
		})
	}
}

func TestSalaryComponents_NetMatchesFormula(t *testing.T) {
	values := []float64{0, 1, 99.99, 250, 1234.56}
	for _, basic := range values {
		for _, allowances := range values {
			for _, tax := range values {
				c := SalaryComponents{Basic: basic, Allowances: allowances, Bonuses: 10, Deductions: 5, Tax: tax}
				want := basic + allowances + 10 - 5 - tax
				assert.InDelta(t, want, c.NetFloat(), 0.005)
			}
		}
	}
}

func TestExpenseStatus(t *testing.T) {
	assert.False(t, ExpenseStatusPending.IsTerminal())
	assert.True(t, ExpenseStatusApproved.IsTerminal())
	assert.True(t, ExpenseStatusRejected.IsTerminal())
	assert.False(t, ExpenseStatus("archived").IsValid())
}

func TestCategory_IsValid(t *testing.T) {
	assert.True(t, Category("Food & Meals").IsValid())
	assert.False(t, Category("food & meals").IsValid())
	assert.Len(t, Categories, 7)
}

func TestDate_JSON(t *testing.T) {
	var exp ExpenseRequest
	err := json.Unmarshal([]byte(`{"id":7,"amount":150,"category":"Travel","expense_date":"2025-01-14","status":"pending"}`), &exp)
	require.NoError(t, err)

	assert.Equal(t, NewDate(2025, time.January, 14), exp.ExpenseDate)
	assert.Equal(t, "2025-01", exp.ExpenseDate.MonthKey())

	out, err := json.Marshal(exp.ExpenseDate)
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-14"`, string(out))
}

func TestDate_UnmarshalTimestampAndNull(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-02T10:00:00Z"`), &d))
	assert.Equal(t, "2025-03-02", d.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"03/02/2025"`), &d))
}

func TestUser_DisplayName(t *testing.T) {
	name := "Ada Lovelace"
	withName := User{Email: "ada@example.com", FullName: &name}
	assert.Equal(t, "Ada Lovelace", withName.DisplayName())

	blank := ""
	noName := User{Email: "bob@example.com", FullName: &blank}
	assert.Equal(t, "bob@example.com", noName.DisplayName())
}
