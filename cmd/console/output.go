package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/view"
)

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...string) {
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func (c *cli) printSlips(slips []entity.SalarySlip, empty string) error {
	if c.jsonOut {
		return c.writeJSON(slips)
	}
	if len(slips) == 0 {
		fmt.Fprintln(c.out, empty)
		return nil
	}
	tw := newTable(c.out, "ID", "EMPLOYEE", "MONTH", "BASIC", "ALLOWANCES", "BONUSES", "DEDUCTIONS", "TAX", "NET")
	for _, s := range slips {
		row(tw, id(s.ID), id(s.EmployeeID), s.MonthYear, money(s.BasicSalary), money(s.Allowances),
			money(s.Bonuses), money(s.Deductions), money(s.Tax), money(s.NetSalary))
	}
	return tw.Flush()
}

func (c *cli) printExpenses(rows []console.ExpenseRow, empty string) error {
	if c.jsonOut {
		return c.writeJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(c.out, empty)
		return nil
	}
	tw := newTable(c.out, "ID", "EMPLOYEE", "DATE", "CATEGORY", "AMOUNT", "STATUS", "DESCRIPTION", "ACTIONS")
	for _, r := range rows {
		actions := make([]string, len(r.Actions))
		for i, a := range r.Actions {
			actions[i] = strings.ToLower(string(a))
		}
		row(tw, id(r.ID), id(r.EmployeeID), r.ExpenseDate.String(), string(r.Category), money(r.Amount),
			string(r.Status), r.Description, strings.Join(actions, ","))
	}
	return tw.Flush()
}

func (c *cli) printEmployees(employees []entity.Employee, empty string) error {
	if c.jsonOut {
		return c.writeJSON(employees)
	}
	if len(employees) == 0 {
		fmt.Fprintln(c.out, empty)
		return nil
	}
	tw := newTable(c.out, "ID", "NAME", "EMAIL")
	for i := range employees {
		row(tw, id(employees[i].ID), employees[i].DisplayName(), employees[i].Email)
	}
	return tw.Flush()
}

func (c *cli) printUser(u *entity.User) error {
	if c.jsonOut {
		return c.writeJSON(u)
	}
	fmt.Fprintf(c.out, "%s <%s> (%s, id %d)\n", u.DisplayName(), u.Email, u.Role, u.ID)
	return nil
}

func printBuckets(w io.Writer, title string, buckets []view.Bucket) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, b := range buckets {
		fmt.Fprintf(tw, "  %s\t%s\t(%d)\n", b.Key, b.Total.StringFixed(2), b.Count)
	}
	_ = tw.Flush()
}

func (c *cli) printDashboard(v console.View) error {
	if c.jsonOut {
		return c.writeJSON(v)
	}
	w := c.out
	fmt.Fprintf(w, "Dashboard (%s) updated %s\n", v.Role, v.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	if v.Degraded {
		fmt.Fprintln(w, "! showing the last data that loaded; refreshes are failing")
	}

	if v.Role == entity.RoleAdmin {
		fmt.Fprintf(w, "Employees: %d  Salary slips: %d  Pending expenses: %d  Total expenses: %d  This month's payroll: %s\n",
			v.Stats.TotalEmployees, v.Stats.TotalSalarySlips, v.Stats.PendingExpenses, v.Stats.TotalExpenses,
			money(v.Stats.CurrentMonthSalary))
	} else {
		fmt.Fprintf(w, "Pending expenses: %d\n", v.Stats.PendingExpenses)
		if s := v.Summary.LatestSlip; s != nil {
			fmt.Fprintf(w, "Latest salary: %s net for %s\n", money(s.NetSalary), s.MonthYear)
		}
	}

	a := v.Summary.Approvals
	fmt.Fprintf(w, "Approvals: %d pending, %d approved, %d rejected\n", a.Pending, a.Approved, a.Rejected)
	fmt.Fprintf(w, "Approved total: %s of %s requested\n",
		v.Summary.ApprovedTotal.StringFixed(2), v.Summary.ExpenseTotal.StringFixed(2))

	printBuckets(w, "Approved by category", v.Summary.ApprovedByCategory)
	printBuckets(w, "Expenses by month", v.Summary.ExpensesByMonth)
	printBuckets(w, "Net salary by month", v.Summary.SalaryTrend)
	return nil
}
