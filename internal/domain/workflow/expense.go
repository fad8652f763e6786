package workflow

import "github.com/garyjia/payroll-console/internal/domain/entity"

var expenseBuilder = func() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)
	// approved and rejected are terminal: configured with no permits
	b.Configure(StateApproved)
	b.Configure(StateRejected)
	return b
}()

// NewExpenseMachine returns a review state machine positioned at the given status
func NewExpenseMachine(status entity.ExpenseStatus) (StateMachine, error) {
	return expenseBuilder.Build(State(status))
}

// CheckTransition reports whether an expense may move from its current status to target
func CheckTransition(current, target entity.ExpenseStatus) error {
	trigger, err := TriggerFor(target)
	if err != nil {
		return err
	}
	m, err := NewExpenseMachine(current)
	if err != nil {
		return err
	}
	return m.Fire(trigger)
}

// AvailableActions lists the actions a reviewer may take on an expense. Empty for terminal states.
func AvailableActions(status entity.ExpenseStatus) []Trigger {
	m, err := NewExpenseMachine(status)
	if err != nil {
		return nil
	}
	return m.PermittedTriggers()
}
