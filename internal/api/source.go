package api

import (
	"fmt"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/fetcher"
)

var (
	_ fetcher.Source = (*AdminAPI)(nil)
	_ fetcher.Source = (*EmployeeAPI)(nil)
)

// ForRole returns the read endpoints a role's dashboard is built from
func ForRole(c *Client, role entity.Role) (fetcher.Source, error) {
	switch role {
	case entity.RoleAdmin:
		return NewAdminAPI(c), nil
	case entity.RoleEmployee:
		return NewEmployeeAPI(c), nil
	}
	return nil, fmt.Errorf("no data source for role %q", role)
}
