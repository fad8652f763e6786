package main

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/export"
)

const defaultHistoryLimit = 10

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write salary slips or expenses to CSV or XLSX",
	}
	cmd.AddCommand(
		newExportFormatCmd(c, "csv"),
		newExportFormatCmd(c, "xlsx"),
		newExportHistoryCmd(c),
	)
	return cmd
}

func newExportFormatCmd(c *cli, format string) *cobra.Command {
	var kind, search, status string

	cmd := &cobra.Command{
		Use:   format,
		Short: fmt.Sprintf("Export the current list as %s", format),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filter, err := console.ParseStatusFilter(status)
			if err != nil {
				return err
			}
			if kind != "slips" && kind != "expenses" {
				return fmt.Errorf("--kind must be slips or expenses, got %q", kind)
			}

			l, err := c.load(ctx)
			if err != nil {
				return err
			}
			v := l.view(console.Filters{SlipQuery: search, ExpenseQuery: search, StatusFilter: filter})

			data, rows, base, err := render(v, kind, format)
			if err != nil {
				return failed("exporting data", err)
			}
			if v.Role == entity.RoleEmployee {
				base = "my_" + base
			}

			name := export.FileName(base, c.app.Clock.Now(), format)
			path, err := c.app.Exports.Save(ctx, format, name, data, rows)
			if err != nil {
				return failed("saving the export", err)
			}
			fmt.Fprintf(c.out, "%s (%d rows)\n", path, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "expenses", "slips or expenses")
	cmd.Flags().StringVar(&search, "search", "", "Only export rows matching this search")
	cmd.Flags().StringVar(&status, "status", entity.StatusFilterAll, "Expense status filter")
	return cmd
}

// render encodes the filtered list of a view
func render(v console.View, kind, format string) ([]byte, int, string, error) {
	var buf bytes.Buffer

	if kind == "slips" {
		var err error
		if format == "csv" {
			err = export.WriteSalarySlipsCSV(&buf, v.SalarySlips)
		} else {
			err = export.WriteSalarySlipsXLSX(&buf, v.SalarySlips)
		}
		return buf.Bytes(), len(v.SalarySlips), "salary_slips", err
	}

	expenses := make([]entity.ExpenseRequest, len(v.Expenses))
	for i := range v.Expenses {
		expenses[i] = v.Expenses[i].ExpenseRequest
	}
	var err error
	if format == "csv" {
		err = export.WriteExpensesCSV(&buf, expenses)
	} else {
		err = export.WriteExpensesXLSX(&buf, expenses)
	}
	return buf.Bytes(), len(expenses), "expenses", err
}

func newExportHistoryCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := c.app.Exports.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.writeJSON(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(c.out, "No exports yet.")
				return nil
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tKIND\tROWS\tPATH")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Kind, r.Rows, r.Path)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "How many exports to show")
	return cmd
}
