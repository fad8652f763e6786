package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/gen2brain/go-fitz"
)

// PDFDocument is the text content of a rendered PDF
type PDFDocument struct {
	Pages []string
}

// Text joins all pages
func (d *PDFDocument) Text() string {
	return strings.Join(d.Pages, "\n")
}

// ExtractPDFText reads the text layer of every page of a PDF held in memory
func ExtractPDFText(data []byte) (*PDFDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	out := &PDFDocument{Pages: make([]string, 0, doc.NumPage())}
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", n+1, err)
		}
		out.Pages = append(out.Pages, text)
	}
	return out, nil
}

// PreviewSalarySlip renders the slip PDF and returns the text a reader of that PDF sees
func PreviewSalarySlip(slip *entity.SalarySlip, employee *entity.Employee, generatedAt time.Time) (string, error) {
	var buf bytes.Buffer
	if err := RenderSalarySlipPDF(&buf, slip, employee, generatedAt); err != nil {
		return "", err
	}
	doc, err := ExtractPDFText(buf.Bytes())
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}
