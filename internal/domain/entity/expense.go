package entity

import (
	"fmt"
	"strings"
	"time"
)

// ExpenseRequest is an employee reimbursement claim awaiting or past review
type ExpenseRequest struct {
	ID          int64         `json:"id"`
	EmployeeID  int64         `json:"employee_id"`
	Amount      float64       `json:"amount"`
	Category    Category      `json:"category"`
	Description string        `json:"description"`
	ExpenseDate Date          `json:"expense_date"`
	ReceiptURL  *string       `json:"receipt_url"`
	Status      ExpenseStatus `json:"status"`
	ReviewedBy  *int64        `json:"reviewed_by"`
	ReviewedAt  *time.Time    `json:"reviewed_at"`
	CreatedAt   time.Time     `json:"created_at"`
}

// IsPending returns true while the request can still be approved or rejected
func (e *ExpenseRequest) IsPending() bool {
	return e.Status == ExpenseStatusPending
}

// Date is a calendar date carried as YYYY-MM-DD on the wire
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate creates a Date in UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or empty for the zero date
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthKey returns the YYYY-MM pay-period style key of the date
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

// MarshalJSON encodes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD", a full RFC 3339 timestamp or null
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) > len(dateLayout) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		*d = Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
