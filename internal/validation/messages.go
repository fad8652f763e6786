package validation

import "fmt"

// fieldMessages overrides the generic text for specific field/rule pairs
var fieldMessages = map[string]map[string]string{
	"employee_id":  {"required": "Employee is required"},
	"month_year":   {"required": "Month-Year is required", "payperiod": "Month-Year must look like YYYY-MM"},
	"basic_salary": {"required": "Basic salary is required", "gt": "Amount must be greater than 0"},
	"amount":       {"required": "Amount is required", "gt": "Amount must be greater than 0"},
	"category":     {"required": "Category is required", "category": "Please choose a valid category"},
	"expense_date": {"required": "Expense date is required"},
	"description":  {"required": "Description is required"},
	"receipt_url":  {"url": "Please enter a valid URL"},
	"email":        {"required": "Email is required", "email": "Invalid email address"},
	"password":     {"required": "Password is required", "min": "Password must be at least 6 characters"},
	"role":         {"oneof": "Role must be admin or employee"},
}

func message(field, tag, param string) string {
	if byTag, ok := fieldMessages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		if param == "0" {
			return "Amount cannot be negative"
		}
		return fmt.Sprintf("Must be at least %s", param)
	case "gt":
		return fmt.Sprintf("Must be greater than %s", param)
	case "min":
		return fmt.Sprintf("Must be at least %s characters", param)
	case "email":
		return "Invalid email address"
	case "url":
		return "Invalid URL format"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", param)
	}
	return fmt.Sprintf("%s is invalid", field)
}
