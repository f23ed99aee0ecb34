package router

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"expensetracker/internal/auth"
	"expensetracker/internal/handler"
	"expensetracker/internal/logging"
	"expensetracker/internal/service"
)

// tokenContextKey is where echo-jwt stores the parsed *auth.Claims.
const tokenContextKey = "token"

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	logger *zap.Logger,
	jwtService *auth.JWTService,
	authService service.AuthService,
	authHandler *handler.AuthHandler,
	expenseHandler *handler.ExpenseHandler,
	analyticsHandler *handler.AnalyticsHandler,
) {
	logger = logging.OrNop(logger)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger.Named("http")))
	e.Use(middleware.Recover())

	e.Validator = handler.NewValidator()

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.GET("/health", handler.Health)
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	// Secured routes: a valid token naming a live session
	secured := api.Group("",
		echojwt.WithConfig(echojwt.Config{
			ContextKey:  tokenContextKey,
			TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + handler.SessionCookieName,
			ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
				return jwtService.ValidateToken(token)
			},
			ErrorHandler: func(_ echo.Context, _ error) error {
				return unauthenticated()
			},
		}),
		sessionAuth(authService, logger.Named("session")),
	)

	secured.POST("/logout", authHandler.Logout)
	secured.GET("/user", authHandler.CurrentUser)

	// Expense routes
	secured.GET("/expenses", expenseHandler.List)
	secured.POST("/expenses", expenseHandler.Create)
	secured.GET("/expenses/export", expenseHandler.Export)
	secured.GET("/expenses/:id", expenseHandler.Get)
	secured.PATCH("/expenses/:id", expenseHandler.Update)
	secured.DELETE("/expenses/:id", expenseHandler.Delete)

	// Analytics routes
	secured.GET("/analytics", analyticsHandler.MonthlySummary)
}

// requestLogger emits one structured line per request.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				logger.Error("request", append(fields, zap.Error(v.Error))...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
			return nil
		},
	})
}
