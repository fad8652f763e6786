package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/mutation"
	"github.com/garyjia/payroll-console/internal/validation"
)

func newExpensesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "List, submit and review expense reimbursements",
	}
	cmd.AddCommand(
		newExpensesListCmd(c),
		newExpensesSubmitCmd(c),
		newDecisionCmd(c, "approve", entity.ExpenseStatusApproved),
		newDecisionCmd(c, "reject", entity.ExpenseStatusRejected),
	)
	return cmd
}

func newExpensesListCmd(c *cli) *cobra.Command {
	var search, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expense requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := console.ParseStatusFilter(status)
			if err != nil {
				return err
			}
			l, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			v := l.view(console.Filters{ExpenseQuery: search, StatusFilter: filter})
			return c.printExpenses(v.Expenses, v.ExpensesEmpty)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by category, description or employee ID")
	cmd.Flags().StringVar(&status, "status", entity.StatusFilterAll, "all, pending, approved or rejected")
	return cmd
}

func newExpensesSubmitCmd(c *cli) *cobra.Command {
	var (
		form     validation.ExpenseForm
		category string
		date     string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a reimbursement request (employee)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			form.Category = entity.Category(category)
			if date == "" {
				now := c.app.Clock.Now()
				form.ExpenseDate = entity.NewDate(now.Year(), now.Month(), now.Day())
			} else {
				d, err := entity.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				form.ExpenseDate = d
			}

			if _, err := c.app.RequireSession(ctx); err != nil {
				return failed("checking the session", err)
			}
			ws, err := c.app.OpenWorkspace(false)
			if err != nil {
				return err
			}
			exp, err := ws.Mutations.SubmitExpense(ctx, form)
			if err != nil {
				return failed("submitting the expense", err)
			}
			if c.jsonOut {
				return c.writeJSON(exp)
			}
			fmt.Fprintf(c.out, "Submitted expense #%d: %s %s, %s\n", exp.ID, exp.Category, money(exp.Amount), exp.Status)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.Float64Var(&form.Amount, "amount", 0, "Amount")
	fs.StringVar(&category, "category", "", "Category, e.g. Travel")
	fs.StringVar(&date, "date", "", "Expense date YYYY-MM-DD (default today)")
	fs.StringVar(&form.Description, "description", "", "What was bought")
	fs.StringVar(&form.ReceiptURL, "receipt", "", "Receipt URL")
	return cmd
}

func newDecisionCmd(c *cli, verb string, target entity.ExpenseStatus) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   verb + " <id>",
		Short: fmt.Sprintf("Mark a pending expense %s (admin)", target),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expenseID, err := parseID(args[0], "expense")
			if err != nil {
				return err
			}
			l, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			exp, ok := l.expense(expenseID)
			if !ok {
				return fmt.Errorf("expense #%d not found", expenseID)
			}

			var confirmer mutation.Confirmer = mutation.ConfirmFunc(c.confirm)
			if yes {
				confirmer = mutation.AlwaysConfirm
			}
			outcome, err := l.ws.Mutations.SetStatus(cmd.Context(), exp, target, confirmer)
			if err != nil {
				return failed("updating the expense status", err)
			}
			if outcome == mutation.Cancelled {
				fmt.Fprintln(c.out, "Cancelled")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newEmployeesCmd(c *cli) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List employees (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.app.RequireSession(ctx); err != nil {
				return failed("checking the session", err)
			}
			if err := c.app.Session.RequireAdmin(); err != nil {
				return failed("loading employees", err)
			}
			employees, err := c.app.Auth.Employees(ctx)
			if err != nil {
				return failed("loading employees", err)
			}
			v := console.BuildView(entity.RoleAdmin, nil, employees, console.Filters{EmployeeQuery: search})
			return c.printEmployees(v.Employees, v.EmployeesEmpty)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by name, email or ID")
	return cmd
}
