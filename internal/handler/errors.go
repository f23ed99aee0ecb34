package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "expensetracker/internal/errors"
)

// fail converts a service error into the JSON error response. Server-side
// failures are logged with full detail; the client only sees a generic
// message.
func fail(c echo.Context, logger *zap.Logger, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.IsInternal() {
		logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
