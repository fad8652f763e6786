package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/internal/domain/workflow"
	"github.com/garyjia/payroll-console/internal/export"
	"github.com/garyjia/payroll-console/internal/mutation"
	"github.com/garyjia/payroll-console/internal/validation"
	"github.com/garyjia/payroll-console/internal/view"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
	contentTypeText = "text/plain; charset=utf-8"

	defaultNotificationLimit = 20
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	view      ConsoleView
	mutations Mutations
	feed      NotificationFeed
	clock     clockwork.Clock
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(view ConsoleView, mutations Mutations, feed NotificationFeed, clock clockwork.Clock, logger *zap.Logger) *Handlers {
	return &Handlers{
		view:      view,
		mutations: mutations,
		feed:      feed,
		clock:     clock,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Role      string `json:"role,omitempty"`
}

// SearchRequest sets one of the debounced search boxes
type SearchRequest struct {
	Target string `json:"target" binding:"required,oneof=slips expenses employees"`
	Query  string `json:"query"`
	// Flush applies the query immediately instead of after the debounce delay
	Flush bool `json:"flush"`
}

// StatusFilterRequest sets the expense status filter
type StatusFilterRequest struct {
	Status string `json:"status"`
}

// StatusChangeRequest approves or rejects an expense
type StatusChangeRequest struct {
	Status  entity.ExpenseStatus `json:"status" binding:"required"`
	Confirm bool                 `json:"confirm"`
}

// ConfirmationResponse is returned when a decision still needs the user's confirmation
type ConfirmationResponse struct {
	Prompt string `json:"prompt"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	status := "healthy"
	role := ""
	if h.view.Closed() {
		status = "session_closed"
	} else {
		role = string(h.view.Role())
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    status,
			Timestamp: h.clock.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Role:      role,
		},
	})
}

// requireSession rejects API calls once the session has been torn down
func (h *Handlers) requireSession(c *gin.Context) {
	if h.view.Closed() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
			Success: false,
			Error:   apperr.MsgSessionExpire,
		})
		return
	}
	c.Next()
}

// GetView handles GET /api/view
func (h *Handlers) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view.View()})
}

// SetSearch handles POST /api/view/search
func (h *Handlers) SetSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid search request")
		return
	}

	switch req.Target {
	case "slips":
		h.view.SetSlipSearch(req.Query)
	case "expenses":
		h.view.SetExpenseSearch(req.Query)
	case "employees":
		h.view.SetEmployeeSearch(req.Query)
	}
	if req.Flush {
		h.view.FlushSearches()
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.view.View()})
}

// SetStatusFilter handles POST /api/view/status
func (h *Handlers) SetStatusFilter(c *gin.Context) {
	var req StatusFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid status filter request")
		return
	}
	if err := h.view.SetStatusFilter(req.Status); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view.View()})
}

// Refresh handles POST /api/refresh
func (h *Handlers) Refresh(c *gin.Context) {
	if err := h.view.Refresh(c.Request.Context()); err != nil {
		h.fail(c, err, "loading data")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view.View()})
}

// ListEmployees handles GET /api/employees. ?reload=true fetches the directory again.
func (h *Handlers) ListEmployees(c *gin.Context) {
	if h.view.Role() != entity.RoleAdmin {
		h.fail(c, apperr.Local(mutation.ErrAdminOnly), "loading employees")
		return
	}
	if c.Query("reload") == "true" {
		if err := h.view.ReloadEmployees(c.Request.Context()); err != nil {
			h.fail(c, err, "loading employees")
			return
		}
	}

	employees := h.view.View().Employees
	if employees == nil {
		employees = []entity.Employee{}
	}
	if q := c.Query("search"); q != "" {
		employees = view.FilterEmployees(employees, q)
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: employees})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.badRequest(c, "invalid limit")
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.feed.Recent(limit)})
}

// CreateSalarySlip handles POST /api/salary-slips
func (h *Handlers) CreateSalarySlip(c *gin.Context) {
	var form validation.SalarySlipForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, apperr.MsgInvalidInput)
		return
	}

	slip, err := h.mutations.CreateSalarySlip(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err, "creating the salary slip")
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: slip})
}

// UpdateSalarySlip handles PUT /api/salary-slips/:id
func (h *Handlers) UpdateSalarySlip(c *gin.Context) {
	id, ok := h.pathID(c, "salary slip")
	if !ok {
		return
	}

	var form validation.SalarySlipForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, apperr.MsgInvalidInput)
		return
	}

	slip, err := h.mutations.UpdateSalarySlip(c.Request.Context(), id, form)
	if err != nil {
		h.fail(c, err, "updating the salary slip")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: slip})
}

// DownloadSalarySlipPDF handles GET /api/salary-slips/:id/pdf.
// With ?format=text it returns the text of the rendered PDF for previews.
func (h *Handlers) DownloadSalarySlipPDF(c *gin.Context) {
	id, ok := h.pathID(c, "salary slip")
	if !ok {
		return
	}

	slip, found := h.view.SalarySlip(id)
	if !found {
		h.notFound(c, "salary slip not found")
		return
	}
	employee, _ := h.view.Employee(slip.EmployeeID)

	switch c.DefaultQuery("format", "pdf") {
	case "pdf":
	case "text":
		text, err := export.PreviewSalarySlip(slip, employee, h.clock.Now())
		if err != nil {
			h.logger.Error("Failed to preview salary slip", zap.Int64("slip_id", id), zap.Error(err))
			h.fail(c, apperr.Local(err), "generating the PDF preview")
			return
		}
		c.Data(http.StatusOK, contentTypeText, []byte(text))
		return
	default:
		h.badRequest(c, "format must be pdf or text")
		return
	}

	var buf bytes.Buffer
	if err := export.RenderSalarySlipPDF(&buf, slip, employee, h.clock.Now()); err != nil {
		h.logger.Error("Failed to render salary slip", zap.Int64("slip_id", id), zap.Error(err))
		h.fail(c, apperr.Local(err), "generating the PDF")
		return
	}
	attachment(c, export.SalarySlipFileName(slip), contentTypePDF, buf.Bytes())
}

// SubmitExpense handles POST /api/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	var form validation.ExpenseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.badRequest(c, apperr.MsgInvalidInput)
		return
	}

	exp, err := h.mutations.SubmitExpense(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err, "submitting the expense")
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: exp})
}

// FieldCheck is the result of checking one form field
type FieldCheck struct {
	Field string `json:"field"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateField handles POST /api/forms/:form/validate?field=<name>. It checks one field of
// a partly filled form, as a browser does when an input loses focus. Nothing is submitted.
func (h *Handlers) ValidateField(c *gin.Context) {
	field := c.Query("field")
	if field == "" {
		h.badRequest(c, "field is required")
		return
	}

	var form any
	switch c.Param("form") {
	case "salary-slip":
		form = &validation.SalarySlipForm{}
	case "expense":
		form = &validation.ExpenseForm{}
	default:
		h.notFound(c, "unknown form")
		return
	}
	if err := c.ShouldBindJSON(form); err != nil {
		h.badRequest(c, apperr.MsgInvalidInput)
		return
	}

	msg := validation.ValidateField(form, field)
	c.JSON(http.StatusOK, Response{Success: true, Data: FieldCheck{Field: field, Valid: msg == "", Error: msg}})
}

// SetExpenseStatus handles POST /api/expenses/:id/status. Without confirm=true nothing is sent
// to the API; the response carries the question to ask instead.
func (h *Handlers) SetExpenseStatus(c *gin.Context) {
	id, ok := h.pathID(c, "expense")
	if !ok {
		return
	}

	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid status request")
		return
	}

	exp, found := h.view.Expense(id)
	if !found {
		h.notFound(c, "expense not found")
		return
	}

	confirmer := mutation.ConfirmFunc(func(_ context.Context, _ string) (bool, error) {
		return req.Confirm, nil
	})
	outcome, err := h.mutations.SetStatus(c.Request.Context(), exp, req.Status, confirmer)
	if err != nil {
		h.fail(c, err, "updating the expense status")
		return
	}
	if outcome == mutation.Cancelled {
		c.JSON(http.StatusPreconditionRequired, Response{
			Success: false,
			Error:   "Confirmation required",
			Data:    ConfirmationResponse{Prompt: mutation.ConfirmPrompt(exp, req.Status)},
		})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"id": id, "status": req.Status}})
}

// Export handles GET /api/export/:kind
func (h *Handlers) Export(c *gin.Context) {
	kind := c.Param("kind")
	v := h.view.View()
	now := h.clock.Now()

	var (
		buf         bytes.Buffer
		err         error
		base        string
		contentType string
	)
	switch kind {
	case "slips.csv":
		base, contentType = "salary_slips", contentTypeCSV
		err = export.WriteSalarySlipsCSV(&buf, v.SalarySlips)
	case "slips.xlsx":
		base, contentType = "salary_slips", contentTypeXLSX
		err = export.WriteSalarySlipsXLSX(&buf, v.SalarySlips)
	case "expenses.csv":
		base, contentType = "expenses", contentTypeCSV
		err = export.WriteExpensesCSV(&buf, expenseRows(v.Expenses))
	case "expenses.xlsx":
		base, contentType = "expenses", contentTypeXLSX
		err = export.WriteExpensesXLSX(&buf, expenseRows(v.Expenses))
	default:
		h.notFound(c, "unknown export "+kind)
		return
	}
	if err != nil {
		h.logger.Error("Export failed", zap.String("kind", kind), zap.Error(err))
		h.fail(c, apperr.Local(err), "exporting data")
		return
	}

	if v.Role == entity.RoleEmployee {
		base = "my_" + base
	}
	ext := kind[strings.LastIndex(kind, ".")+1:]
	attachment(c, export.FileName(base, now, ext), contentType, buf.Bytes())
}

func expenseRows(rows []console.ExpenseRow) []entity.ExpenseRequest {
	out := make([]entity.ExpenseRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].ExpenseRequest
	}
	return out
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handlers) pathID(c *gin.Context, what string) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Debug("Invalid path ID", zap.String("id", idStr))
		h.badRequest(c, "invalid "+what+" ID")
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func (h *Handlers) notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Success: false, Error: msg})
}

// fail maps a classified error onto a status code and its single user message
func (h *Handlers) fail(c *gin.Context, err error, action string) {
	resp := Response{Success: false, Error: apperr.UserMessage(err, action)}

	var fe apperr.FieldErrors
	if errors.As(err, &fe) {
		resp.Fields = fe.Fields()
	}

	c.JSON(statusFor(err), resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mutation.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, mutation.ErrAdminOnly), errors.Is(err, mutation.ErrEmployeeOnly):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNetwork, apperr.KindServer:
		return http.StatusBadGateway
	case apperr.KindClient:
		if e, ok := apperr.As(err); ok && e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
		return http.StatusBadRequest
	case apperr.KindLocal:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
