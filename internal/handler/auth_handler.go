package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"expensetracker/internal/logging"
	"expensetracker/internal/service"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "sid"

// CookieConfig controls the session cookie set on login.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookie      CookieConfig
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		logger:      logging.OrNop(logger).Named("auth_handler"),
	}
}

// Register godoc
// @Summary Register a new user
// @Description Creates the user and logs them in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, h.logger, bindError(err))
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, h.logger, err)
	}

	session, err := h.authService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return fail(c, h.logger, err)
	}

	h.setCookie(c, session.Token)
	return c.JSON(http.StatusCreated, AuthResponse{
		User:  NewUserResponse(session.User),
		Token: session.Token,
	})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, h.logger, bindError(err))
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, h.logger, err)
	}

	session, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return fail(c, h.logger, err)
	}

	h.setCookie(c, session.Token)
	return c.JSON(http.StatusOK, AuthResponse{
		User:  NewUserResponse(session.User),
		Token: session.Token,
	})
}

// Logout godoc
// @Summary Logout user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return fail(c, h.logger, err)
	}
	if err := h.authService.Logout(c.Request().Context(), SessionID(c)); err != nil {
		return fail(c, h.logger, err)
	}

	h.clearCookie(c)
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// CurrentUser godoc
// @Summary Get the logged-in user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user [get]
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return fail(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, NewUserResponse(user))
}

func (h *AuthHandler) setCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
