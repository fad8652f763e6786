package console

import "github.com/garyjia/payroll-console/internal/domain/entity"

const (
	msgNoMatches    = "No results match your search."
	msgNoEmployees  = "No employees found — invite team members to get started."
	actionEmployees = "loading employees"
)

// emptySlips and emptyExpenses are the per-role empty-state texts of the lists
func emptySlips(role entity.Role) string {
	if role == entity.RoleAdmin {
		return "No salary slips yet — create one to get started."
	}
	return "No salary slips available yet — check back soon."
}

func emptyExpenses(role entity.Role) string {
	if role == entity.RoleAdmin {
		return "Employees will see their submitted reimbursement requests here."
	}
	return "No expenses submitted yet — add your first reimbursement request."
}

// emptyText picks the message for a list: nothing loaded, or nothing matching
func emptyText(total, visible int, empty string) string {
	switch {
	case total == 0:
		return empty
	case visible == 0:
		return msgNoMatches
	}
	return ""
}
