package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logging"
	"expensetracker/internal/model"
	"expensetracker/internal/service"
)

// ExpenseHandler handles the owner-scoped expense endpoints.
type ExpenseHandler struct {
	expenses service.ExpenseService
	logger   *zap.Logger
	now      func() time.Time
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(expenses service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenses: expenses,
		logger:   logging.OrNop(logger).Named("expense_handler"),
		now:      time.Now,
	}
}

// List godoc
// @Summary List the caller's expenses
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Expense
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses [get]
func (h *ExpenseHandler) List(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return fail(c, h.logger, err)
	}

	expenses, err := h.expenses.List(c.Request().Context(), user.ID)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, expenses)
}

// Get godoc
// @Summary Get one expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} model.Expense
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) Get(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	id, err := expenseID(c)
	if err != nil {
		return fail(c, h.logger, err)
	}

	expense, err := h.expenses.Get(c.Request().Context(), user.ID, id)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, expense)
}

// Create godoc
// @Summary Record an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExpenseRequest true "Expense"
// @Success 201 {object} model.Expense
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses [post]
func (h *ExpenseHandler) Create(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return fail(c, h.logger, err)
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, h.logger, bindError(err))
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, h.logger, err)
	}

	expense, err := h.expenses.Create(c.Request().Context(), user.ID, req.ToInput())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, expense)
}

// Update godoc
// @Summary Update part of an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Param request body ExpensePatchRequest true "Fields to change"
// @Success 200 {object} model.Expense
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses/{id} [patch]
func (h *ExpenseHandler) Update(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	id, err := expenseID(c)
	if err != nil {
		return fail(c, h.logger, err)
	}

	var req ExpensePatchRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, h.logger, bindError(err))
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, h.logger, err)
	}

	expense, err := h.expenses.Update(c.Request().Context(), user.ID, id, req.ToPatch())
	if err != nil {
		return fail(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, expense)
}

// Delete godoc
// @Summary Delete an expense
// @Description Deleting an id that does not exist succeeds.
// @Tags expenses
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	id, err := expenseID(c)
	if err != nil {
		return fail(c, h.logger, err)
	}

	if err := h.expenses.Delete(c.Request().Context(), user.ID, id); err != nil {
		return fail(c, h.logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Export godoc
// @Summary Download a month of expenses as CSV
// @Tags expenses
// @Produce text/csv
// @Security BearerAuth
// @Param date query string false "Any day of the month, YYYY-MM-DD (default today)"
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /expenses/export [get]
func (h *ExpenseHandler) Export(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	day, err := dateParam(c, h.now)
	if err != nil {
		return fail(c, h.logger, err)
	}

	// Buffered so a failure can still become a JSON 500.
	var buf bytes.Buffer
	if err := h.expenses.ExportMonth(c.Request().Context(), user.ID, day, &buf); err != nil {
		return fail(c, h.logger, err)
	}

	filename := fmt.Sprintf("expenses-%s.csv", day.Format("2006-01"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// expenseID parses the :id path parameter. Anything that is not a positive
// integer cannot name an expense and is reported as not found.
func expenseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrExpenseNotFound
	}
	return uint(id), nil
}

// dateParam reads the optional ?date= query parameter, defaulting to the
// current UTC date.
func dateParam(c echo.Context, now func() time.Time) (model.Date, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return model.DateOf(now()), nil
	}
	day, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidDate, err)
	}
	return day, nil
}
