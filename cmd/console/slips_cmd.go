package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/export"
	"github.com/garyjia/payroll-console/internal/validation"
)

func newSlipsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slips",
		Short: "List, create and print salary slips",
	}
	cmd.AddCommand(
		newSlipsListCmd(c),
		newSlipsCreateCmd(c),
		newSlipsUpdateCmd(c),
		newSlipsPDFCmd(c),
	)
	return cmd
}

func newSlipsListCmd(c *cli) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List salary slips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			v := l.view(console.Filters{SlipQuery: search})
			return c.printSlips(v.SalarySlips, v.SlipsEmpty)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by employee ID or month")
	return cmd
}

// slipFlags binds the salary slip form to flags
func slipFlags(cmd *cobra.Command, form *validation.SalarySlipForm) {
	fs := cmd.Flags()
	fs.Int64Var(&form.EmployeeID, "employee", 0, "Employee ID")
	fs.StringVar(&form.MonthYear, "month", "", "Pay period, YYYY-MM")
	fs.Float64Var(&form.BasicSalary, "basic", 0, "Basic salary")
	fs.Float64Var(&form.Allowances, "allowances", 0, "Allowances")
	fs.Float64Var(&form.Deductions, "deductions", 0, "Deductions")
	fs.Float64Var(&form.Bonuses, "bonuses", 0, "Bonuses")
	fs.Float64Var(&form.Tax, "tax", 0, "Tax")
	fs.StringVar(&form.Notes, "notes", "", "Notes")
}

func (c *cli) printSlipResult(verb string, form validation.SalarySlipForm, slip *entity.SalarySlip) error {
	if c.jsonOut {
		return c.writeJSON(slip)
	}
	fmt.Fprintf(c.out, "%s salary slip #%d for employee %d, %s: net %s\n",
		verb, slip.ID, slip.EmployeeID, slip.MonthYear, form.NetPreview().StringFixed(2))
	return nil
}

func newSlipsCreateCmd(c *cli) *cobra.Command {
	var form validation.SalarySlipForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a salary slip (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.app.RequireSession(ctx); err != nil {
				return failed("checking the session", err)
			}
			ws, err := c.app.OpenWorkspace(false)
			if err != nil {
				return err
			}
			slip, err := ws.Mutations.CreateSalarySlip(ctx, form)
			if err != nil {
				return failed("creating the salary slip", err)
			}
			return c.printSlipResult("Created", form, slip)
		},
	}

	slipFlags(cmd, &form)
	return cmd
}

func newSlipsUpdateCmd(c *cli) *cobra.Command {
	var changes validation.SalarySlipForm

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a salary slip; flags not given keep their current value (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slipID, err := parseID(args[0], "salary slip")
			if err != nil {
				return err
			}
			l, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			slip, ok := l.slip(slipID)
			if !ok {
				return fmt.Errorf("salary slip #%d not found", slipID)
			}

			form := validation.SalarySlipFormFrom(slip)
			fs := cmd.Flags()
			if fs.Changed("employee") {
				form.EmployeeID = changes.EmployeeID
			}
			if fs.Changed("month") {
				form.MonthYear = changes.MonthYear
			}
			if fs.Changed("basic") {
				form.BasicSalary = changes.BasicSalary
			}
			if fs.Changed("allowances") {
				form.Allowances = changes.Allowances
			}
			if fs.Changed("deductions") {
				form.Deductions = changes.Deductions
			}
			if fs.Changed("bonuses") {
				form.Bonuses = changes.Bonuses
			}
			if fs.Changed("tax") {
				form.Tax = changes.Tax
			}
			if fs.Changed("notes") {
				form.Notes = changes.Notes
			}

			updated, err := l.ws.Mutations.UpdateSalarySlip(cmd.Context(), slipID, form)
			if err != nil {
				return failed("updating the salary slip", err)
			}
			return c.printSlipResult("Updated", form, updated)
		},
	}

	slipFlags(cmd, &changes)
	return cmd
}

func newSlipsPDFCmd(c *cli) *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Render a salary slip as PDF into the export directory",
		Long:  "Render a salary slip as PDF into the export directory. With --preview the text of the rendered PDF is printed instead and nothing is saved.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			slipID, err := parseID(args[0], "salary slip")
			if err != nil {
				return err
			}
			l, err := c.load(ctx)
			if err != nil {
				return err
			}
			slip, ok := l.slip(slipID)
			if !ok {
				return fmt.Errorf("salary slip #%d not found", slipID)
			}

			employee := c.slipOwner(cmd, l.ws.Role, slip.EmployeeID)

			if preview {
				text, err := export.PreviewSalarySlip(slip, employee, c.app.Clock.Now())
				if err != nil {
					return failed("generating the PDF preview", err)
				}
				fmt.Fprintln(c.out, strings.TrimRight(text, "\n"))
				return nil
			}

			var buf bytes.Buffer
			if err := export.RenderSalarySlipPDF(&buf, slip, employee, c.app.Clock.Now()); err != nil {
				return failed("generating the PDF", err)
			}
			path, err := c.app.Exports.Save(ctx, "pdf", export.SalarySlipFileName(slip), buf.Bytes(), 1)
			if err != nil {
				return failed("saving the PDF", err)
			}
			fmt.Fprintln(c.out, path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "print the slip text instead of saving the PDF")
	return cmd
}

// slipOwner finds the employee record printed on a slip. It returns nil when unknown.
func (c *cli) slipOwner(cmd *cobra.Command, role entity.Role, employeeID int64) *entity.Employee {
	if role != entity.RoleAdmin {
		if u := c.app.Session.User(); u != nil && u.ID == employeeID {
			return u
		}
		return nil
	}
	employees, err := c.app.Auth.Employees(cmd.Context())
	if err != nil {
		c.logger.Warn("Employee lookup failed; printing the ID only", zap.Error(err))
		return nil
	}
	for i := range employees {
		if employees[i].ID == employeeID {
			return &employees[i]
		}
	}
	return nil
}

func parseID(raw, what string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, raw)
	}
	return v, nil
}
