package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"expensetracker/internal/logging"
	"expensetracker/internal/service"
)

// AnalyticsHandler serves the monthly spending summary.
type AnalyticsHandler struct {
	expenses service.ExpenseService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(expenses service.ExpenseService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		expenses: expenses,
		logger:   logging.OrNop(logger).Named("analytics_handler"),
		now:      time.Now,
	}
}

// MonthlySummary godoc
// @Summary Spending summary for one month
// @Description Daily totals for every day of the month and per-category totals, counts and averages.
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param date query string false "Any day of the month, YYYY-MM-DD (default today)"
// @Success 200 {object} service.MonthlySummary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /analytics [get]
func (h *AnalyticsHandler) MonthlySummary(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	day, err := dateParam(c, h.now)
	if err != nil {
		return fail(c, h.logger, err)
	}

	summary, err := h.expenses.MonthlySummary(c.Request().Context(), user.ID, day)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, summary)
}
