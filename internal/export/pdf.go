package export

import (
	"fmt"
	"io"
	"time"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/go-pdf/fpdf"
)

const (
	pdfLeft   = 20.0
	pdfRight  = 150.0
	pdfFont   = "Helvetica"
	pdfTitle  = "SALARY SLIP"
	pdfIssuer = "Payroll Management System"
)

// SalarySlipFileName is the download name of a slip's PDF
func SalarySlipFileName(slip *entity.SalarySlip) string {
	return fmt.Sprintf("salary_slip_%d_%s.pdf", slip.EmployeeID, slip.MonthYear)
}

// PeriodLabel renders a YYYY-MM pay period as "March 2024". Unparseable keys are returned as is.
func PeriodLabel(monthYear string) string {
	t, err := time.Parse("2006-01", monthYear)
	if err != nil {
		return monthYear
	}
	return t.Format("January 2006")
}

func money(v float64) string {
	return "$" + fmt.Sprintf("%.2f", v)
}

// RenderSalarySlipPDF writes a single-page salary slip. employee may be nil, in which case only
// the employee ID is printed.
func RenderSalarySlipPDF(w io.Writer, slip *entity.SalarySlip, employee *entity.Employee, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Salary slip %s", slip.MonthYear), true)
	pdf.SetCreator(pdfIssuer, true)
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()

	centered := func(y float64, text string) {
		pdf.Text((pageWidth-pdf.GetStringWidth(text))/2, y, text)
	}
	rightAligned := func(x, y float64, text string) {
		pdf.Text(x-pdf.GetStringWidth(text), y, text)
	}

	pdf.SetFont(pdfFont, "B", 20)
	centered(20, pdfTitle)
	pdf.SetFont(pdfFont, "", 10)
	centered(30, pdfIssuer)

	pdf.SetFont(pdfFont, "B", 12)
	pdf.Text(pdfLeft, 45, "Employee Details")
	pdf.SetFont(pdfFont, "", 12)
	pdf.Text(pdfLeft, 55, fmt.Sprintf("Employee ID: %d", slip.EmployeeID))
	y := 65.0
	if employee != nil {
		pdf.Text(pdfLeft, y, fmt.Sprintf("Name: %s", employee.DisplayName()))
		y += 10
	}
	pdf.Text(pdfLeft, y, fmt.Sprintf("Period: %s", PeriodLabel(slip.MonthYear)))

	y += 15
	pdf.SetFont(pdfFont, "B", 12)
	pdf.Text(pdfLeft, y, "Salary Breakdown")
	pdf.SetFont(pdfFont, "", 12)

	lines := []struct {
		label string
		value string
	}{
		{"Basic Salary:", money(slip.BasicSalary)},
		{"Allowances:", money(slip.Allowances)},
		{"Bonuses:", money(slip.Bonuses)},
		{"Deductions:", "-" + money(slip.Deductions)},
		{"Tax:", "-" + money(slip.Tax)},
	}
	for _, l := range lines {
		y += 10
		pdf.Text(pdfLeft, y, l.label)
		rightAligned(pdfRight, y, l.value)
	}

	y += 5
	pdf.Line(pdfLeft, y, pdfRight, y)

	y += 10
	pdf.SetFont(pdfFont, "B", 14)
	pdf.Text(pdfLeft, y, "Net Salary:")
	rightAligned(pdfRight, y, money(slip.NetSalary))

	if notes := slip.NoteText(); notes != "" {
		y += 15
		pdf.SetFont(pdfFont, "I", 10)
		pdf.SetXY(pdfLeft, y)
		pdf.MultiCell(pdfRight-pdfLeft, 5, "Notes: "+notes, "", "L", false)
	}

	pdf.SetFont(pdfFont, "", 10)
	pdf.Text(pdfLeft, 270, fmt.Sprintf("Generated on: %s", generatedAt.Format("January 2, 2006")))
	pdf.Text(pdfLeft, 280, "Authorized Signature: _____________________")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render salary slip PDF: %w", err)
	}
	return nil
}
