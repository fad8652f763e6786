package export

import (
	"fmt"
	"io"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/view"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSalarySlips = "Salary Slips"
	SheetExpenses    = "Expenses"
	SheetByCategory  = "By Category"
	SheetByMonth     = "By Month"
	SheetSalaryTrend = "Salary Trend"
)

type sheetWriter struct {
	f   *excelize.File
	err error
}

func (s *sheetWriter) row(sheet string, rowNum int, values ...any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetSheetRow(sheet, cell, &values); err != nil {
		s.err = fmt.Errorf("failed to write %s row %d: %w", sheet, rowNum, err)
	}
}

func (s *sheetWriter) header(sheet string, columns []string) {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	s.row(sheet, 1, values...)
	if s.err != nil {
		return
	}
	style, err := s.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		s.err = err
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := s.f.SetCellStyle(sheet, "A1", last, style); err != nil {
		s.err = err
	}
}

// newWorkbook creates a workbook whose first sheet is named first
func newWorkbook(first string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	return f, nil
}

func addSheet(f *excelize.File, name string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}
	return nil
}

func writeBuckets(s *sheetWriter, sheet, keyHeader string, buckets []view.Bucket) {
	s.header(sheet, []string{keyHeader, "Total", "Count"})
	for i, b := range buckets {
		total, _ := b.Total.Float64()
		s.row(sheet, i+2, b.Key, total, b.Count)
	}
}

// WriteSalarySlipsXLSX writes the slips plus a net salary trend sheet
func WriteSalarySlipsXLSX(w io.Writer, slips []entity.SalarySlip) error {
	f, err := newWorkbook(SheetSalarySlips)
	if err != nil {
		return err
	}
	defer f.Close()

	s := &sheetWriter{f: f}
	s.header(SheetSalarySlips, SalarySlipHeader)
	for i, slip := range slips {
		s.row(SheetSalarySlips, i+2, slip.ID, slip.EmployeeID, slip.MonthYear,
			slip.BasicSalary, slip.Allowances, slip.Bonuses, slip.Deductions, slip.Tax, slip.NetSalary)
	}
	if s.err == nil {
		s.err = addSheet(f, SheetSalaryTrend)
	}
	writeBuckets(s, SheetSalaryTrend, "Month", view.SalaryTrend(slips))
	if s.err != nil {
		return s.err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteExpensesXLSX writes the analytics report: the expenses, approved totals by category and
// expense totals by month
func WriteExpensesXLSX(w io.Writer, expenses []entity.ExpenseRequest) error {
	f, err := newWorkbook(SheetExpenses)
	if err != nil {
		return err
	}
	defer f.Close()

	s := &sheetWriter{f: f}
	s.header(SheetExpenses, ExpenseHeader)
	for i, e := range expenses {
		s.row(SheetExpenses, i+2, e.ID, e.EmployeeID, e.Amount, string(e.Category),
			e.Description, e.ExpenseDate.String(), string(e.Status))
	}
	if s.err == nil {
		s.err = addSheet(f, SheetByCategory)
	}
	writeBuckets(s, SheetByCategory, "Category", view.SumByCategory(expenses, view.Approved))
	if s.err == nil {
		s.err = addSheet(f, SheetByMonth)
	}
	writeBuckets(s, SheetByMonth, "Month", view.SumByMonth(expenses, view.Any))
	if s.err != nil {
		return s.err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
