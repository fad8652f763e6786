package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/payroll-console/internal/config"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/event"
	"github.com/garyjia/payroll-console/internal/fetcher"
	"github.com/garyjia/payroll-console/internal/mutation"
	"github.com/garyjia/payroll-console/internal/session"
	"github.com/garyjia/payroll-console/internal/validation"
)

type fakeAPI struct {
	mu      sync.Mutex
	patched map[string]string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}
	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer tok-1"
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, entity.Token{AccessToken: "tok-1", TokenType: "bearer"})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, entity.User{ID: 1, Email: "boss@example.com", Role: entity.RoleAdmin})
	})
	mux.HandleFunc("GET /admin/salary-slips", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []entity.SalarySlip{{ID: 1, EmployeeID: 7, MonthYear: "2024-03", BasicSalary: 100, NetSalary: 100}})
	})
	mux.HandleFunc("GET /admin/expenses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []entity.ExpenseRequest{{ID: 5, EmployeeID: 7, Amount: 40, Category: entity.CategoryTravel, Status: entity.ExpenseStatusPending}})
	})
	mux.HandleFunc("GET /admin/dashboard-stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, entity.DashboardStats{PendingExpenses: 1})
	})
	mux.HandleFunc("PATCH /admin/expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.patched[r.PathValue("id")] = body.Status
		f.mu.Unlock()
		writeJSON(w, entity.ExpenseRequest{ID: 5, EmployeeID: 7, Amount: 40, Category: entity.CategoryTravel, Status: entity.ExpenseStatus(body.Status)})
	})
	return mux
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.API.BaseURL = baseURL
	cfg.Database.Path = filepath.Join(dir, "console.db")
	cfg.Export.Dir = filepath.Join(dir, "exports")
	return cfg
}

func newTestApp(t *testing.T) (*App, *fakeAPI, *config.Config) {
	t.Helper()
	fake := &fakeAPI{patched: map[string]string{}}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL)
	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	return a, fake, cfg
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	a, _, cfg := newTestApp(t)
	ctx := context.Background()

	_, err := a.RequireSession(ctx)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)

	user, err := a.Session.Login(ctx, validation.LoginForm{Email: "boss@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, user.Role)
	require.NoError(t, a.Close())

	again, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer again.Close()

	restored, err := again.RequireSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", restored.Email)
}

func TestApp_WorkspaceLoadsAndMutates(t *testing.T) {
	a, fake, _ := newTestApp(t)
	defer a.Close()
	ctx := context.Background()

	_, err := a.Session.Login(ctx, validation.LoginForm{Email: "boss@example.com", Password: "secret"})
	require.NoError(t, err)

	ws, err := a.OpenWorkspace(false)
	require.NoError(t, err)
	assert.Nil(t, ws.Console)
	assert.Equal(t, entity.RoleAdmin, ws.Role)

	snap, err := ws.Fetcher.Refresh(ctx, fetcher.ModeInteractive)
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 1)

	outcome, err := ws.Mutations.SetStatus(ctx, &snap.Expenses[0], entity.ExpenseStatusApproved, mutation.AlwaysConfirm)
	require.NoError(t, err)
	assert.Equal(t, mutation.Applied, outcome)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "approved", fake.patched["5"])

	recent := a.Notifier.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "Expense approved successfully", recent[0].Message)
}

func TestApp_LiveWorkspaceHasConsole(t *testing.T) {
	a, _, _ := newTestApp(t)
	defer a.Close()

	_, err := a.Session.Login(context.Background(), validation.LoginForm{Email: "boss@example.com", Password: "secret"})
	require.NoError(t, err)

	ws, err := a.OpenWorkspace(true)
	require.NoError(t, err)
	require.NotNil(t, ws.Console)
	assert.Equal(t, entity.RoleAdmin, ws.Console.Role())
}

func TestApp_WorkspaceNeedsRole(t *testing.T) {
	a, _, _ := newTestApp(t)
	defer a.Close()

	_, err := a.OpenWorkspace(false)
	assert.Error(t, err)
}

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingSender) SendText(_ context.Context, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return "om_1", nil
}

func TestApp_ChatMirrorsDecisionsAndWarnings(t *testing.T) {
	a, _, cfg := newTestApp(t)
	defer a.Close()
	cfg.Lark.Prefix = "payroll"

	sender := &recordingSender{}
	a.wireChat(sender)

	ctx := context.Background()
	require.NoError(t, a.Events.Dispatch(ctx, event.New(event.TypeExpenseRejected, 5, map[string]any{
		"category": "Travel",
		"amount":   40.0,
	})))
	a.Notifier.Warning(ctx, "Expense rejected")
	a.Notifier.Success(ctx, "Expense approved successfully")

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, []string{
		"Expense #5 rejected (Travel, 40.00)",
		"[payroll] [warning] Expense rejected",
	}, sender.texts)
}

func TestDecisionText(t *testing.T) {
	evt := event.New(event.TypeExpenseApproved, 9, map[string]any{"category": "Training", "amount": 120.5})
	assert.Equal(t, "Expense #9 approved (Training, 120.50)", DecisionText(evt))
}
