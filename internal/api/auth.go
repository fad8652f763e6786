package api

import (
	"context"
	"net/http"

	"github.com/garyjia/payroll-console/internal/domain/entity"
)

// SignupRequest is the account creation payload
type SignupRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	FullName string      `json:"full_name,omitempty"`
	Role     entity.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthAPI covers the /auth endpoints
type AuthAPI struct {
	c *Client
}

// NewAuthAPI creates the auth endpoint group
func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{c: c}
}

// Login exchanges credentials for a bearer token
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*entity.Token, error) {
	var tok entity.Token
	if err := a.c.post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Signup creates an account. The server does not log the new user in.
func (a *AuthAPI) Signup(ctx context.Context, req SignupRequest) (*entity.User, error) {
	var user entity.User
	if err := a.c.post(ctx, "/auth/signup", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the user the current credential belongs to
func (a *AuthAPI) Me(ctx context.Context) (*entity.User, error) {
	var user entity.User
	if err := a.c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Employees returns the employee directory
func (a *AuthAPI) Employees(ctx context.Context) ([]entity.Employee, error) {
	var out []entity.Employee
	if err := a.c.get(ctx, "/auth/employees", &out); err != nil {
		return nil, err
	}
	return out, nil
}
