package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/cache"
	"expensetracker/internal/model"
)

const sessionKeyPrefix = "sess:"

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStoreInterface defines the interface for session storage operations.
type SessionStoreInterface interface {
	Create(ctx context.Context, user *model.User) (sessionID string, err error)
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	Destroy(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// SessionStore keeps sessions in a key-value store under the "sess:" prefix,
// apart from the data cache keys. Expiry is the store's per-key TTL.
type SessionStore struct {
	store cache.Store
	ttl   time.Duration
	now   func() time.Time
}

// Ensure SessionStore implements SessionStoreInterface
var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a session store whose sessions live for ttl.
func NewSessionStore(store cache.Store, ttl time.Duration) *SessionStore {
	return &SessionStore{store: store, ttl: ttl, now: time.Now}
}

// SessionKey is the key-value store key of a session.
func SessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Create opens a new session for user. Unlike cache writes, a failed write
// here is an error: the client would otherwise hold a dead session.
func (s *SessionStore) Create(ctx context.Context, user *model.User) (string, error) {
	sessionID := uuid.NewString()
	session := model.Session{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: s.now().UTC(),
	}
	if err := cache.SetJSON(ctx, s.store, SessionKey(sessionID), session, s.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sessionID, nil
}

// Get loads a session.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, ok, err := cache.GetJSON[model.Session](ctx, s.store, SessionKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Destroy removes a session. Destroying an unknown session is a no-op.
func (s *SessionStore) Destroy(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, SessionKey(sessionID))
}

// TTL returns the lifetime of new sessions.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}
