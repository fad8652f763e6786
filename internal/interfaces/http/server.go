// Package http serves the console's view state and mutations as JSON for a local browser UI.
// It is a thin adapter: every request is translated into a console or mutation call.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/mutation"
	"github.com/garyjia/payroll-console/internal/notify"
	"github.com/garyjia/payroll-console/internal/validation"
)

// Version is reported by the health check
var Version = "dev"

// ConsoleView is the view-state owner the handlers read from
type ConsoleView interface {
	Role() entity.Role
	Closed() bool
	View() console.View
	Refresh(ctx context.Context) error
	ReloadEmployees(ctx context.Context) error
	SetSlipSearch(q string)
	SetExpenseSearch(q string)
	SetEmployeeSearch(q string)
	FlushSearches()
	SetStatusFilter(status string) error
	Expense(id int64) (*entity.ExpenseRequest, bool)
	SalarySlip(id int64) (*entity.SalarySlip, bool)
	Employee(id int64) (*entity.Employee, bool)
}

// Mutations is the write surface
type Mutations interface {
	CreateSalarySlip(ctx context.Context, form validation.SalarySlipForm) (*entity.SalarySlip, error)
	UpdateSalarySlip(ctx context.Context, id int64, form validation.SalarySlipForm) (*entity.SalarySlip, error)
	SubmitExpense(ctx context.Context, form validation.ExpenseForm) (*entity.ExpenseRequest, error)
	SetStatus(ctx context.Context, exp *entity.ExpenseRequest, target entity.ExpenseStatus, confirmer mutation.Confirmer) (mutation.Outcome, error)
}

// NotificationFeed exposes recent notifications
type NotificationFeed interface {
	Recent(n int) []notify.Notification
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8090,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server over one console session
func NewServer(config ServerConfig, view ConsoleView, mutations Mutations, feed NotificationFeed, clock clockwork.Clock, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(view, mutations, feed, clock, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api", h.requireSession)
	{
		api.GET("/view", h.GetView)
		api.POST("/view/search", h.SetSearch)
		api.POST("/view/status", h.SetStatusFilter)
		api.POST("/refresh", h.Refresh)
		api.GET("/employees", h.ListEmployees)
		api.GET("/notifications", h.ListNotifications)

		api.POST("/salary-slips", h.CreateSalarySlip)
		api.PUT("/salary-slips/:id", h.UpdateSalarySlip)
		api.GET("/salary-slips/:id/pdf", h.DownloadSalarySlipPDF)

		api.POST("/expenses", h.SubmitExpense)
		api.POST("/expenses/:id/status", h.SetExpenseStatus)

		api.POST("/forms/:form/validate", h.ValidateField)

		api.GET("/export/:kind", h.Export)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or serving fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
