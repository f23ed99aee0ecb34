package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"expensetracker/internal/auth"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/handler"
	"expensetracker/internal/service"
)

func unauthenticated() error {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: apperrors.ErrUnauthenticated.Error(),
		Code:  "UNAUTHENTICATED",
	})
}

// sessionAuth runs after token validation. It resolves the token's session
// on every request so a logged-out or expired session is rejected even while
// its token is still within expiry.
func sessionAuth(authService service.AuthService, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(tokenContextKey).(*auth.Claims)
			if !ok {
				return unauthenticated()
			}

			user, err := authService.Authenticate(c.Request().Context(), claims.SessionID())
			if err != nil {
				if errors.Is(err, apperrors.ErrUnauthenticated) {
					return unauthenticated()
				}
				logger.Error("authenticate session", zap.Error(err))
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			if user.ID != claims.UserID {
				return unauthenticated()
			}

			handler.SetSession(c, claims.SessionID(), user)
			return next(c)
		}
	}
}
