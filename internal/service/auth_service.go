package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/auth"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logging"
	"expensetracker/internal/model"
)

const bcryptCost = 10

// Session is what a successful register or login hands back to the client.
type Session struct {
	ID    string
	Token string
	User  *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*Session, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	Logout(ctx context.Context, sessionID string) error
	// Authenticate resolves a session id to its user, consulting the session
	// store and the cached user record.
	Authenticate(ctx context.Context, sessionID string) (*model.User, error)
}

type authService struct {
	storage    Storage
	jwtService *auth.JWTService
	sessions   auth.SessionStoreInterface
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(storage Storage, jwtService *auth.JWTService, sessions auth.SessionStoreInterface, logger *zap.Logger) AuthService {
	return &authService{
		storage:    storage,
		jwtService: jwtService,
		sessions:   sessions,
		logger:     logging.OrNop(logger).Named("auth"),
	}
}

// Register creates a user with a hashed password and logs them in.
func (s *authService) Register(ctx context.Context, username, password string) (*Session, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     model.RoleUser,
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	return s.openSession(ctx, user)
}

// Login verifies credentials and opens a session.
func (s *authService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// Logout ends a session.
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, sessionID string) (*model.User, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, auth.ErrSessionNotFound) {
			s.logger.Warn("session lookup failed", zap.Error(err))
		}
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := s.storage.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user, nil
}

func (s *authService) openSession(ctx context.Context, user *model.User) (*Session, error) {
	sessionID, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	token, err := s.jwtService.GenerateToken(sessionID, user.ID, user.Username, s.sessions.TTL())
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &Session{ID: sessionID, Token: token, User: user}, nil
}
