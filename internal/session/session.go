// Package session owns the bearer credential and the signed-in user. It is the only writer of
// either; everything else reads through Token, User and Role.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/garyjia/payroll-console/internal/api"
	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/application/dispatcher"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/event"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/garyjia/payroll-console/internal/validation"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrForbidden        = errors.New("this action requires an admin account")
)

// TokenStore persists the credential between runs
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
	SaveUser(ctx context.Context, user *entity.User) error
	LoadUser(ctx context.Context) (*entity.User, error)
}

// AuthService is the subset of the auth endpoints the session needs
type AuthService interface {
	Login(ctx context.Context, email, password string) (*entity.Token, error)
	Signup(ctx context.Context, req api.SignupRequest) (*entity.User, error)
	Me(ctx context.Context) (*entity.User, error)
}

// Manager holds the current session
type Manager struct {
	auth       AuthService
	store      TokenStore
	dispatcher dispatcher.Dispatcher
	notifier   notify.Publisher
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
	user  *entity.User
}

// NewManager creates a session manager. store and notifier may be nil.
func NewManager(auth AuthService, store TokenStore, d dispatcher.Dispatcher, notifier notify.Publisher, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Manager{
		auth:       auth,
		store:      store,
		dispatcher: d,
		notifier:   notifier,
		logger:     logger,
	}
}

// Token returns the current bearer token; it satisfies api.TokenSource
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the signed-in user, or nil
func (m *Manager) User() *entity.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Role returns the signed-in user's role, or "" when logged out
func (m *Manager) Role() entity.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.Role
}

// Authenticated reports whether a user is signed in
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

// RequireAdmin returns an error unless an admin is signed in
func (m *Manager) RequireAdmin() error {
	switch {
	case !m.Authenticated():
		return apperr.Local(ErrNotAuthenticated)
	case m.Role() != entity.RoleAdmin:
		return apperr.Local(ErrForbidden)
	}
	return nil
}

// Login validates the form, exchanges credentials for a token and loads the user record
func (m *Manager) Login(ctx context.Context, form validation.LoginForm) (*entity.User, error) {
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	tok, err := m.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.token = tok.AccessToken
	m.mu.Unlock()

	user, err := m.auth.Me(ctx)
	if err != nil {
		m.clear()
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveToken(ctx, tok.AccessToken); err != nil {
			m.logger.Warn("Failed to persist session token", zap.Error(err))
		}
		if err := m.store.SaveUser(ctx, user); err != nil {
			m.logger.Warn("Failed to cache user", zap.Error(err))
		}
	}

	m.logger.Info("Logged in",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)))
	m.emit(ctx, event.TypeSessionStarted, user)
	return m.User(), nil
}

// Signup creates the account and then logs in with the same credentials
func (m *Manager) Signup(ctx context.Context, form validation.SignupForm) (*entity.User, error) {
	if form.Role == "" {
		form.Role = entity.RoleEmployee
	}
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	if _, err := m.auth.Signup(ctx, api.SignupRequest{
		Email:    form.Email,
		Password: form.Password,
		FullName: form.FullName,
		Role:     form.Role,
	}); err != nil {
		return nil, err
	}
	return m.Login(ctx, validation.LoginForm{Email: form.Email, Password: form.Password})
}

// Logout ends the session locally. There is no server-side logout endpoint.
func (m *Manager) Logout(ctx context.Context) error {
	user := m.User()
	m.clear()
	if m.store != nil {
		if err := m.store.ClearToken(ctx); err != nil {
			return fmt.Errorf("failed to clear stored session: %w", err)
		}
	}
	if user != nil {
		m.emit(ctx, event.TypeSessionEnded, user)
	}
	return nil
}

// Refresh reloads the user record for the current token
func (m *Manager) Refresh(ctx context.Context) (*entity.User, error) {
	if m.Token() == "" {
		return nil, apperr.Local(ErrNotAuthenticated)
	}
	user, err := m.auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.SaveUser(ctx, user); err != nil {
			m.logger.Warn("Failed to cache user", zap.Error(err))
		}
	}
	return m.User(), nil
}

// Restore resumes a persisted session, validating the stored token against the API.
// It returns ErrNotAuthenticated when nothing is stored.
func (m *Manager) Restore(ctx context.Context) (*entity.User, error) {
	if m.store == nil {
		return nil, ErrNotAuthenticated
	}
	token, err := m.store.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	user, err := m.Refresh(ctx)
	if err != nil {
		if !apperr.IsUnauthorized(err) {
			// Offline: fall back to the cached user so read-only commands can still explain themselves
			if cached, cacheErr := m.store.LoadUser(ctx); cacheErr == nil && cached != nil {
				m.mu.Lock()
				m.user = cached
				m.mu.Unlock()
			}
		}
		return nil, err
	}
	m.emit(ctx, event.TypeSessionStarted, user)
	return user, nil
}

// Expire tears the session down after the API rejected the credential.
// It is safe to call repeatedly; only the first call notifies.
func (m *Manager) Expire(ctx context.Context) {
	m.mu.Lock()
	wasActive := m.token != ""
	user := m.user
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	if !wasActive {
		return
	}
	if m.store != nil {
		if err := m.store.ClearToken(ctx); err != nil {
			m.logger.Warn("Failed to clear expired session", zap.Error(err))
		}
	}
	m.logger.Info("Session expired")
	m.notifier.Publish(ctx, notify.LevelWarning, apperr.MsgSessionExpire)
	m.emit(ctx, event.TypeSessionExpired, user)
}

// HandleUnauthorized is installed as the API client's 401 hook
func (m *Manager) HandleUnauthorized() {
	m.Expire(context.Background())
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
}

func (m *Manager) emit(ctx context.Context, t event.Type, user *entity.User) {
	if m.dispatcher == nil {
		return
	}
	var id int64
	payload := map[string]any{}
	if user != nil {
		id = user.ID
		payload["email"] = user.Email
		payload["role"] = string(user.Role)
	}
	m.dispatcher.DispatchAsync(ctx, event.New(t, id, payload))
}
