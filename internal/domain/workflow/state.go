package workflow

import "github.com/garyjia/payroll-console/internal/domain/entity"

// State is a review state of an expense request
type State string

const (
	StatePending  State = State(entity.ExpenseStatusPending)
	StateApproved State = State(entity.ExpenseStatusApproved)
	StateRejected State = State(entity.ExpenseStatusRejected)
)

var validStates = map[State]bool{
	StatePending:  true,
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if no transition may leave the state
func (s State) IsTerminal() bool {
	return entity.ExpenseStatus(s).IsTerminal()
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known review state
func (s State) IsValid() bool {
	return validStates[s]
}

// Status converts the state back to the entity status
func (s State) Status() entity.ExpenseStatus {
	return entity.ExpenseStatus(s)
}
