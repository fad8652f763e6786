package entity

// Role identifies what a session is allowed to see and do
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// IsValid returns true for the two known roles
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// ExpenseStatus is the review status of an expense request
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

// StatusFilterAll disables status filtering in list views
const StatusFilterAll = "all"

// IsTerminal returns true once a request has been reviewed
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseStatusApproved || s == ExpenseStatusRejected
}

// IsValid returns true if the status is one of the known statuses
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusApproved, ExpenseStatusRejected:
		return true
	}
	return false
}

// Category is an expense category as labelled by the API
type Category string

const (
	CategoryTravel         Category = "Travel"
	CategoryFood           Category = "Food & Meals"
	CategoryOfficeSupplies Category = "Office Supplies"
	CategoryEquipment      Category = "Equipment"
	CategoryTraining       Category = "Training"
	CategoryCommunication  Category = "Communication"
	CategoryOther          Category = "Other"
)

// Categories lists the selectable categories in display order
var Categories = []Category{
	CategoryTravel,
	CategoryFood,
	CategoryOfficeSupplies,
	CategoryEquipment,
	CategoryTraining,
	CategoryCommunication,
	CategoryOther,
}

// IsValid returns true if the category is one of Categories
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
