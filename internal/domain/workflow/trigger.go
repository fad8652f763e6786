package workflow

import (
	"fmt"

	"github.com/garyjia/payroll-console/internal/domain/entity"
)

// Trigger is a reviewer action on an expense request
type Trigger string

const (
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// TriggerFor maps a requested target status to the trigger that reaches it
func TriggerFor(target entity.ExpenseStatus) (Trigger, error) {
	switch target {
	case entity.ExpenseStatusApproved:
		return TriggerApprove, nil
	case entity.ExpenseStatusRejected:
		return TriggerReject, nil
	}
	return "", fmt.Errorf("%w: no action leads to status %q", ErrInvalidTransition, target)
}
