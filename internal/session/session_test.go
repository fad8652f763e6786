package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/payroll-console/internal/api"
	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/application/dispatcher"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/event"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/garyjia/payroll-console/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuth struct {
	LoginFunc  func(ctx context.Context, email, password string) (*entity.Token, error)
	SignupFunc func(ctx context.Context, req api.SignupRequest) (*entity.User, error)
	MeFunc     func(ctx context.Context) (*entity.User, error)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*entity.Token, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *mockAuth) Signup(ctx context.Context, req api.SignupRequest) (*entity.User, error) {
	return m.SignupFunc(ctx, req)
}

func (m *mockAuth) Me(ctx context.Context) (*entity.User, error) {
	return m.MeFunc(ctx)
}

type memoryStore struct {
	token string
	user  *entity.User
}

func (s *memoryStore) LoadToken(context.Context) (string, error)   { return s.token, nil }
func (s *memoryStore) SaveToken(_ context.Context, t string) error { s.token = t; return nil }
func (s *memoryStore) ClearToken(context.Context) error {
	s.token = ""
	s.user = nil
	return nil
}
func (s *memoryStore) SaveUser(_ context.Context, u *entity.User) error { s.user = u; return nil }
func (s *memoryStore) LoadUser(context.Context) (*entity.User, error)   { return s.user, nil }

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingPublisher) Publish(_ context.Context, _ notify.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, message)
}

var admin = &entity.User{ID: 1, Email: "boss@corp.io", Role: entity.RoleAdmin}

func workingAuth() *mockAuth {
	return &mockAuth{
		LoginFunc: func(_ context.Context, email, password string) (*entity.Token, error) {
			if password != "secret1" {
				return nil, &apperr.Error{Kind: apperr.KindClient, Status: 400, Detail: "Incorrect email or password"}
			}
			return &entity.Token{AccessToken: "tok-" + email, TokenType: "bearer"}, nil
		},
		MeFunc: func(context.Context) (*entity.User, error) { return admin, nil },
	}
}

func TestLogin_StoresTokenAndUser(t *testing.T) {
	store := &memoryStore{}
	d := dispatcher.New()
	started := make(chan *event.Event, 1)
	d.Subscribe(event.TypeSessionStarted, "test", func(_ context.Context, evt *event.Event) error {
		started <- evt
		return nil
	})

	m := NewManager(workingAuth(), store, d, nil, zap.NewNop())
	user, err := m.Login(context.Background(), validation.LoginForm{Email: "boss@corp.io", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.True(t, m.Authenticated())
	assert.Equal(t, entity.RoleAdmin, m.Role())
	assert.Equal(t, "tok-boss@corp.io", m.Token())
	assert.Equal(t, "tok-boss@corp.io", store.token)
	assert.NoError(t, m.RequireAdmin())

	select {
	case evt := <-started:
		assert.Equal(t, "admin", evt.PayloadString("role"))
	case <-time.After(time.Second):
		t.Fatal("session.started was not dispatched")
	}
}

func TestLogin_ValidatesBeforeCallingAPI(t *testing.T) {
	auth := &mockAuth{LoginFunc: func(context.Context, string, string) (*entity.Token, error) {
		t.Fatal("API must not be called for invalid input")
		return nil, nil
	}}
	m := NewManager(auth, nil, nil, nil, nil)

	_, err := m.Login(context.Background(), validation.LoginForm{Email: "not-an-email"})
	var verrs *validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.NotEmpty(t, verrs.Field("email"))
	assert.NotEmpty(t, verrs.Field("password"))
	assert.False(t, m.Authenticated())
}

func TestLogin_WrongPasswordKeepsLoggedOut(t *testing.T) {
	m := NewManager(workingAuth(), &memoryStore{}, nil, nil, nil)

	_, err := m.Login(context.Background(), validation.LoginForm{Email: "boss@corp.io", Password: "nope"})
	assert.Equal(t, "Incorrect email or password", apperr.UserMessage(err, "logging in"))
	assert.False(t, m.Authenticated())
	assert.Empty(t, m.Token())
}

func TestSignup_DefaultsToEmployeeThenLogsIn(t *testing.T) {
	auth := workingAuth()
	var sent api.SignupRequest
	auth.SignupFunc = func(_ context.Context, req api.SignupRequest) (*entity.User, error) {
		sent = req
		return &entity.User{ID: 2, Email: req.Email, Role: req.Role}, nil
	}
	auth.MeFunc = func(context.Context) (*entity.User, error) {
		return &entity.User{ID: 2, Email: sent.Email, Role: sent.Role}, nil
	}
	m := NewManager(auth, nil, nil, nil, nil)

	user, err := m.Signup(context.Background(), validation.SignupForm{Email: "new@corp.io", Password: "secret1", FullName: "New Hire"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleEmployee, sent.Role)
	assert.Equal(t, "New Hire", sent.FullName)
	assert.Equal(t, entity.RoleEmployee, user.Role)

	err = m.RequireAdmin()
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRestore(t *testing.T) {
	t.Run("nothing stored", func(t *testing.T) {
		m := NewManager(workingAuth(), &memoryStore{}, nil, nil, nil)
		_, err := m.Restore(context.Background())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("valid token", func(t *testing.T) {
		m := NewManager(workingAuth(), &memoryStore{token: "saved"}, nil, nil, nil)
		user, err := m.Restore(context.Background())
		require.NoError(t, err)
		assert.Equal(t, admin.Email, user.Email)
		assert.Equal(t, "saved", m.Token())
	})

	t.Run("offline keeps cached user", func(t *testing.T) {
		auth := workingAuth()
		auth.MeFunc = func(context.Context) (*entity.User, error) {
			return nil, apperr.Network(errors.New("connection refused"))
		}
		m := NewManager(auth, &memoryStore{token: "saved", user: admin}, nil, nil, nil)
		_, err := m.Restore(context.Background())
		assert.Equal(t, apperr.KindNetwork, apperr.KindOf(err))
		assert.Equal(t, entity.RoleAdmin, m.Role())
	})
}

func TestExpire_ClearsOnceAndNotifies(t *testing.T) {
	store := &memoryStore{}
	pub := &recordingPublisher{}
	d := dispatcher.New()
	expired := make(chan struct{}, 2)
	d.Subscribe(event.TypeSessionExpired, "test", func(context.Context, *event.Event) error {
		expired <- struct{}{}
		return nil
	})
	m := NewManager(workingAuth(), store, d, pub, zap.NewNop())
	_, err := m.Login(context.Background(), validation.LoginForm{Email: "boss@corp.io", Password: "secret1"})
	require.NoError(t, err)

	m.HandleUnauthorized()
	m.HandleUnauthorized()

	assert.False(t, m.Authenticated())
	assert.Empty(t, store.token)
	assert.Equal(t, []string{apperr.MsgSessionExpire}, pub.msgs)
	require.NoError(t, d.Close())
	assert.Len(t, expired, 1)
}

func TestLogout(t *testing.T) {
	store := &memoryStore{}
	m := NewManager(workingAuth(), store, nil, nil, nil)
	_, err := m.Login(context.Background(), validation.LoginForm{Email: "boss@corp.io", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	assert.False(t, m.Authenticated())
	assert.Nil(t, m.User())
	assert.Empty(t, store.token)

	_, err = m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
