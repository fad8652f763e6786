package entity

import "time"

// User is an account known to the payroll API. Employees are users with RoleEmployee.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Employee is the reference record used to populate selection inputs
type Employee = User

// DisplayName returns the full name, falling back to the email
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}

// IsAdmin returns true for admin accounts
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Token is the credential returned by a successful login
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// DashboardStats is the server-computed aggregate snapshot. Admin and employee
// endpoints fill different fields; unused fields stay zero.
type DashboardStats struct {
	TotalEmployees     int     `json:"total_employees,omitempty"`
	TotalSalarySlips   int     `json:"total_salary_slips,omitempty"`
	PendingExpenses    int     `json:"pending_expenses"`
	TotalExpenses      int     `json:"total_expenses,omitempty"`
	CurrentMonthSalary float64 `json:"current_month_salary,omitempty"`
}
