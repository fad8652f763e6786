// Package export writes salary slips and expenses to CSV, XLSX and PDF, and reads CSV and PDF
// back for previews and round-trip checks.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var (
	SalarySlipHeader = []string{"ID", "Employee ID", "Month", "Basic Salary", "Allowances", "Bonuses", "Deductions", "Tax", "Net Salary"}
	ExpenseHeader    = []string{"ID", "Employee ID", "Amount", "Category", "Description", "Date", "Status"}
)

// ErrHeaderMismatch is returned when a CSV file does not start with the expected header
var ErrHeaderMismatch = errors.New("unexpected CSV header")

func amount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// lineBreaks rewrites CRLF and lone CR as LF. encoding/csv drops a CR before LF inside
// quoted fields on read, so free text is written with LF line breaks only.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func csvText(s string) string {
	return lineBreaks.Replace(s)
}

func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// FileName builds an export file name such as "salary_slips_2024-04-02.csv"
func FileName(base string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", base, at.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}

// WriteSalarySlipsCSV writes slips in display order
func WriteSalarySlipsCSV(w io.Writer, slips []entity.SalarySlip) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SalarySlipHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range slips {
		record := []string{
			strconv.FormatInt(s.ID, 10),
			strconv.FormatInt(s.EmployeeID, 10),
			s.MonthYear,
			amount(s.BasicSalary),
			amount(s.Allowances),
			amount(s.Bonuses),
			amount(s.Deductions),
			amount(s.Tax),
			amount(s.NetSalary),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write salary slip %d: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExpensesCSV writes expenses in display order. Line breaks in descriptions are written as LF.
func WriteExpensesCSV(w io.Writer, expenses []entity.ExpenseRequest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExpenseHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.EmployeeID, 10),
			amount(e.Amount),
			string(e.Category),
			csvText(e.Description),
			e.ExpenseDate.String(),
			string(e.Status),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write expense %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRecords(r io.Reader, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrHeaderMismatch
	}
	for i, h := range header {
		if strings.TrimSpace(records[0][i]) != h {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i+1, records[0][i], h)
		}
	}
	return records[1:], nil
}

// ReadSalarySlipsCSV parses a file written by WriteSalarySlipsCSV
func ReadSalarySlipsCSV(r io.Reader) ([]entity.SalarySlip, error) {
	records, err := readRecords(r, SalarySlipHeader)
	if err != nil {
		return nil, err
	}

	slips := make([]entity.SalarySlip, 0, len(records))
	for i, rec := range records {
		var s entity.SalarySlip
		var perr error
		set := func(dst *float64, v string) {
			if perr == nil {
				*dst, perr = parseAmount(v)
			}
		}
		s.ID, perr = strconv.ParseInt(rec[0], 10, 64)
		if perr == nil {
			s.EmployeeID, perr = strconv.ParseInt(rec[1], 10, 64)
		}
		s.MonthYear = rec[2]
		set(&s.BasicSalary, rec[3])
		set(&s.Allowances, rec[4])
		set(&s.Bonuses, rec[5])
		set(&s.Deductions, rec[6])
		set(&s.Tax, rec[7])
		set(&s.NetSalary, rec[8])
		if perr != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, perr)
		}
		slips = append(slips, s)
	}
	return slips, nil
}

// ReadExpensesCSV parses a file written by WriteExpensesCSV
func ReadExpensesCSV(r io.Reader) ([]entity.ExpenseRequest, error) {
	records, err := readRecords(r, ExpenseHeader)
	if err != nil {
		return nil, err
	}

	expenses := make([]entity.ExpenseRequest, 0, len(records))
	for i, rec := range records {
		var e entity.ExpenseRequest
		var perr error
		e.ID, perr = strconv.ParseInt(rec[0], 10, 64)
		if perr == nil {
			e.EmployeeID, perr = strconv.ParseInt(rec[1], 10, 64)
		}
		if perr == nil {
			e.Amount, perr = parseAmount(rec[2])
		}
		e.Category = entity.Category(rec[3])
		e.Description = rec[4]
		if perr == nil && strings.TrimSpace(rec[5]) != "" {
			e.ExpenseDate, perr = entity.ParseDate(rec[5])
		}
		e.Status = entity.ExpenseStatus(rec[6])
		if perr != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, perr)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}
