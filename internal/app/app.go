// Package app wires configuration, storage, the API client, the session and the per-role data
// pipeline into one object the command line and the web console share.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/garyjia/payroll-console/internal/api"
	"github.com/garyjia/payroll-console/internal/application/dispatcher"
	"github.com/garyjia/payroll-console/internal/config"
	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/event"
	"github.com/garyjia/payroll-console/internal/fetcher"
	"github.com/garyjia/payroll-console/internal/lark"
	"github.com/garyjia/payroll-console/internal/mutation"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/garyjia/payroll-console/internal/session"
	"github.com/garyjia/payroll-console/internal/storage"
)

// App holds the long-lived components of one process
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Clock    clockwork.Clock
	Store    *storage.LocalStore
	Exports  *storage.ExportStorage
	Client   *api.Client
	Auth     *api.AuthAPI
	Events   dispatcher.Dispatcher
	Notifier *notify.Center
	Session  *session.Manager

	unsubscribe []func()
}

// Option customizes New
type Option func(*App)

// WithClock replaces the real clock
func WithClock(clock clockwork.Clock) Option {
	return func(a *App) { a.Clock = clock }
}

// New opens the local store and builds the session and API client
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}

	store, err := storage.Open(cfg.DatabaseSettings(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	a.Store = store
	a.Exports = storage.NewExportStorage(cfg.Export.Dir, store, logger)

	a.Events = dispatcher.New(dispatcher.WithLogger(logger))
	a.Notifier = notify.NewCenter(logger,
		notify.WithHistory(cfg.Console.HistorySize),
		notify.WithClock(a.Clock))
	a.Notifier.AddSink(notify.NewLogSink(logger))

	// The client reads the token through the session created right after it
	var mgr *session.Manager
	client, err := api.NewClient(cfg.APIClient(), api.TokenFunc(func() string {
		if mgr == nil {
			return ""
		}
		return mgr.Token()
	}), logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.Client = client
	a.Auth = api.NewAuthAPI(client)

	mgr = session.NewManager(a.Auth, store, a.Events, a.Notifier, logger)
	client.OnUnauthorized(mgr.HandleUnauthorized)
	a.Session = mgr

	if larkCfg := cfg.LarkClient(); larkCfg.Enabled() {
		a.wireChat(lark.NewMessageAPI(lark.NewClient(larkCfg, logger), logger))
	}

	return a, nil
}

// wireChat mirrors warnings, errors and review decisions to the configured chat
func (a *App) wireChat(chat notify.TextSender) {
	a.Notifier.AddSink(notify.NewChatSink(chat, "["+a.Config.Lark.Prefix+"]"))

	mirror := func(ctx context.Context, evt *event.Event) error {
		text := DecisionText(evt)
		if _, err := chat.SendText(ctx, text); err != nil {
			return fmt.Errorf("failed to post review decision: %w", err)
		}
		return nil
	}
	for _, t := range []event.Type{event.TypeExpenseApproved, event.TypeExpenseRejected} {
		a.unsubscribe = append(a.unsubscribe, a.Events.Subscribe(t, "chat.decision", mirror))
	}
	a.Logger.Info("Chat notifications enabled", zap.String("chat_id", a.Config.Lark.ChatID))
}

// DecisionText is the chat line posted for an approval or rejection
func DecisionText(evt *event.Event) string {
	verb := "approved"
	if evt.Type == event.TypeExpenseRejected {
		verb = "rejected"
	}
	return fmt.Sprintf("Expense #%d %s (%s, %.2f)",
		evt.SubjectID, verb, evt.PayloadString("category"), evt.PayloadFloat("amount"))
}

// Close releases the store and waits for in-flight event handlers
func (a *App) Close() error {
	for _, fn := range a.unsubscribe {
		fn()
	}
	errs := []error{a.Events.Close(), a.Store.Close()}
	return errors.Join(errs...)
}

// RequireSession restores the saved session, failing when nobody is logged in
func (a *App) RequireSession(ctx context.Context) (*entity.User, error) {
	user, err := a.Session.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, session.ErrNotAuthenticated
	}
	return user, nil
}

// Workspace is the data pipeline of the logged-in role
type Workspace struct {
	Role      entity.Role
	Fetcher   *fetcher.Fetcher
	Mutations *mutation.Dispatcher
	// Console is only set for live workspaces
	Console *console.Console
}

// OpenWorkspace builds the fetcher and mutation dispatcher for the current role. A live
// workspace also gets a console; it reloads after mutations through the event dispatcher, so
// the dispatcher does not reload itself. The console still has to be started.
func (a *App) OpenWorkspace(live bool) (*Workspace, error) {
	role := a.Session.Role()
	source, err := api.ForRole(a.Client, role)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(source, a.Notifier, a.Logger, fetcher.Options{
		DegradedAfter: a.Config.Console.DegradedAfter,
		Clock:         a.Clock,
	})

	ws := &Workspace{Role: role, Fetcher: f}

	deps := mutation.Deps{
		Admin:    api.NewAdminAPI(a.Client),
		Employee: api.NewEmployeeAPI(a.Client),
		Session:  a.Session,
		Reloader: f,
		Events:   a.Events,
		Notifier: a.Notifier,
		Logger:   a.Logger,
	}

	if live {
		deps.Reloader = nil
		var directory console.Directory
		if role == entity.RoleAdmin {
			directory = a.Auth
		}
		ws.Console = console.New(console.Deps{
			Role:            role,
			Loader:          f,
			Directory:       directory,
			Events:          a.Events,
			Notifier:        a.Notifier,
			Clock:           a.Clock,
			RefreshInterval: a.Config.Console.RefreshInterval,
			Debounce:        a.Config.Console.Debounce,
			Logger:          a.Logger,
		})
	}

	ws.Mutations = mutation.New(deps)
	return ws, nil
}
