package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/model"
)

const (
	currentUserKey = "currentUser"
	sessionIDKey   = "sessionID"
)

// SetSession stores the authenticated user and their session id on the
// request context.
func SetSession(c echo.Context, sessionID string, user *model.User) {
	c.Set(sessionIDKey, sessionID)
	c.Set(currentUserKey, user)
}

// CurrentUser returns the user attached by the session middleware.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(currentUserKey).(*model.User)
	return user, ok && user != nil
}

// SessionID returns the session id attached by the session middleware.
func SessionID(c echo.Context) string {
	id, _ := c.Get(sessionIDKey).(string)
	return id
}

func requireUser(c echo.Context) (*model.User, error) {
	user, ok := CurrentUser(c)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}
