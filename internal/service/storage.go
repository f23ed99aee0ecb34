package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"expensetracker/internal/cache"
	"expensetracker/internal/logging"
	"expensetracker/internal/model"
	"expensetracker/internal/repository"
)

const (
	// UserCacheTTL bounds staleness of cached user records, which rarely change.
	UserCacheTTL = time.Hour
	// ExpensesCacheTTL bounds staleness of a cached expense list should an
	// invalidation ever be missed.
	ExpensesCacheTTL = 5 * time.Minute
)

// UserKey is the cache key of a user record.
func UserKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// ExpensesKey is the cache key of an owner's expense list.
func ExpensesKey(ownerID uint) string {
	return fmt.Sprintf("expenses:%d", ownerID)
}

// Storage is the record store seen through the cache. Reads of users and
// expense lists are read-through; every expense write invalidates the
// owner's cached list after the authoritative write succeeds.
type Storage interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error

	GetExpensesByOwner(ctx context.Context, ownerID uint) ([]model.Expense, error)
	GetExpenseByID(ctx context.Context, id uint) (*model.Expense, error)
	CreateExpense(ctx context.Context, ownerID uint, in model.ExpenseInput) (*model.Expense, error)
	UpdateExpense(ctx context.Context, id uint, patch model.ExpensePatch) (*model.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id uint) error
}

type cachingStorage struct {
	repos  repository.Set
	cache  cache.Store
	logger *zap.Logger
}

// NewStorage composes the record store with a cache. A nil store disables
// caching without changing behaviour.
func NewStorage(repos repository.Set, store cache.Store, logger *zap.Logger) Storage {
	if store == nil {
		store = cache.Nop{}
	}
	return &cachingStorage{
		repos:  repos,
		cache:  store,
		logger: logging.OrNop(logger).Named("storage"),
	}
}

// GetUser retrieves a user by ID with caching. Absence is not cached.
func (s *cachingStorage) GetUser(ctx context.Context, id uint) (*model.User, error) {
	key := UserKey(id)
	if cached, ok := cacheLookup[model.User](ctx, s, key); ok {
		return &cached, nil
	}

	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, user, UserCacheTTL)
	return user, nil
}

func (s *cachingStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repos.Users.FindByUsername(ctx, username)
}

func (s *cachingStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return err
	}
	s.invalidate(ctx, UserKey(user.ID))
	return nil
}

// GetExpensesByOwner returns the owner's expenses, from cache when present.
func (s *cachingStorage) GetExpensesByOwner(ctx context.Context, ownerID uint) ([]model.Expense, error) {
	key := ExpensesKey(ownerID)
	if cached, ok := cacheLookup[[]model.Expense](ctx, s, key); ok {
		return cached, nil
	}

	expenses, err := s.repos.Expenses.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, expenses, ExpensesCacheTTL)
	return expenses, nil
}

func (s *cachingStorage) GetExpenseByID(ctx context.Context, id uint) (*model.Expense, error) {
	return s.repos.Expenses.FindByID(ctx, id)
}

func (s *cachingStorage) CreateExpense(ctx context.Context, ownerID uint, in model.ExpenseInput) (*model.Expense, error) {
	expense, err := s.repos.Expenses.Create(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ExpensesKey(ownerID))
	return expense, nil
}

func (s *cachingStorage) UpdateExpense(ctx context.Context, id uint, patch model.ExpensePatch) (*model.Expense, error) {
	expense, err := s.repos.Expenses.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ExpensesKey(expense.UserID))
	return expense, nil
}

func (s *cachingStorage) DeleteExpense(ctx context.Context, ownerID, id uint) error {
	if err := s.repos.Expenses.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, ExpensesKey(ownerID))
	return nil
}

// cacheLookup reads key from the cache. Any failure counts as a miss; an
// entry that no longer decodes is dropped.
func cacheLookup[T any](ctx context.Context, s *cachingStorage, key string) (T, bool) {
	value, ok, err := cache.GetJSON[T](ctx, s.cache, key)
	if err != nil {
		s.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		s.invalidate(ctx, key)
		return value, false
	}
	if ok {
		s.logger.Debug("cache hit", zap.String("key", key))
	}
	return value, ok
}

func (s *cachingStorage) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := cache.SetJSON(ctx, s.cache, key, value, ttl); err != nil {
		s.logger.Debug("cache write skipped", zap.String("key", key), zap.Error(err))
	}
}

func (s *cachingStorage) invalidate(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
