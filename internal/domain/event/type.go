package event

// Type identifies the type of domain event
type Type string

const (
	TypeSalarySlipCreated Type = "salary_slip.created"
	TypeSalarySlipUpdated Type = "salary_slip.updated"
	TypeExpenseSubmitted  Type = "expense.submitted"
	TypeExpenseApproved   Type = "expense.approved"
	TypeExpenseRejected   Type = "expense.rejected"
	TypeSessionStarted    Type = "session.started"
	TypeSessionEnded      Type = "session.ended"
	TypeSessionExpired    Type = "session.expired"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsMutation returns true for events emitted after a successful write to the API
func (t Type) IsMutation() bool {
	switch t {
	case TypeSalarySlipCreated, TypeSalarySlipUpdated, TypeExpenseSubmitted, TypeExpenseApproved, TypeExpenseRejected:
		return true
	}
	return false
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSalarySlipCreated,
		TypeSalarySlipUpdated,
		TypeExpenseSubmitted,
		TypeExpenseApproved,
		TypeExpenseRejected,
		TypeSessionStarted,
		TypeSessionEnded,
		TypeSessionExpired:
		return true
	default:
		return false
	}
}
