package repository

import (
	"context"
	"sort"
	"sync"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/model"
)

// memoryUserRepository keeps users in a map. Ids come from a counter that
// starts at 1 and is never rewound.
type memoryUserRepository struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]model.User
}

// NewMemoryUserRepository returns an empty in-memory UserRepository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[uint]model.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return apperrors.ErrUsernameTaken
		}
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

type memoryExpenseRepository struct {
	mu       sync.RWMutex
	nextID   uint
	expenses map[uint]model.Expense
}

// NewMemoryExpenseRepository returns an empty in-memory ExpenseRepository.
func NewMemoryExpenseRepository() ExpenseRepository {
	return &memoryExpenseRepository{expenses: make(map[uint]model.Expense)}
}

func (r *memoryExpenseRepository) Create(_ context.Context, ownerID uint, in model.ExpenseInput) (*model.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	expense := model.NewExpense(ownerID, in)
	expense.ID = r.nextID
	r.expenses[expense.ID] = expense
	return &expense, nil
}

func (r *memoryExpenseRepository) FindByID(_ context.Context, id uint) (*model.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expense, ok := r.expenses[id]
	if !ok {
		return nil, apperrors.ErrExpenseNotFound
	}
	return &expense, nil
}

func (r *memoryExpenseRepository) ListByOwner(_ context.Context, ownerID uint) ([]model.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Expense, 0)
	for _, expense := range r.expenses {
		if expense.UserID == ownerID {
			out = append(out, expense)
		}
	}
	// ids are allocated monotonically, so id order is insertion order
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryExpenseRepository) Update(_ context.Context, id uint, patch model.ExpensePatch) (*model.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expense, ok := r.expenses[id]
	if !ok {
		return nil, apperrors.ErrExpenseNotFound
	}
	patch.Apply(&expense)
	r.expenses[id] = expense
	return &expense, nil
}

func (r *memoryExpenseRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.expenses, id)
	return nil
}
