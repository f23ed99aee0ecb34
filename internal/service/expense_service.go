package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logging"
	"expensetracker/internal/model"
)

// ExpenseService exposes owner-scoped expense operations. An expense owned by
// someone else is reported as ErrExpenseNotFound, exactly like a missing one.
type ExpenseService interface {
	List(ctx context.Context, ownerID uint) ([]model.Expense, error)
	Get(ctx context.Context, ownerID, id uint) (*model.Expense, error)
	Create(ctx context.Context, ownerID uint, in model.ExpenseInput) (*model.Expense, error)
	Update(ctx context.Context, ownerID, id uint, patch model.ExpensePatch) (*model.Expense, error)
	Delete(ctx context.Context, ownerID, id uint) error
	ListMonth(ctx context.Context, ownerID uint, day model.Date) ([]model.Expense, error)
	ExportMonth(ctx context.Context, ownerID uint, day model.Date, w io.Writer) error
	MonthlySummary(ctx context.Context, ownerID uint, day model.Date) (*MonthlySummary, error)
}

type expenseService struct {
	storage Storage
	logger  *zap.Logger
}

// NewExpenseService creates a new expense service.
func NewExpenseService(storage Storage, logger *zap.Logger) ExpenseService {
	return &expenseService{
		storage: storage,
		logger:  logging.OrNop(logger).Named("expenses"),
	}
}

func (s *expenseService) List(ctx context.Context, ownerID uint) ([]model.Expense, error) {
	expenses, err := s.storage.GetExpensesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *expenseService) Get(ctx context.Context, ownerID, id uint) (*model.Expense, error) {
	expense, err := s.storage.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.UserID != ownerID {
		return nil, apperrors.ErrExpenseNotFound
	}
	return expense, nil
}

func (s *expenseService) Create(ctx context.Context, ownerID uint, in model.ExpenseInput) (*model.Expense, error) {
	expense, err := s.storage.CreateExpense(ctx, ownerID, in)
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	s.logger.Info("expense created",
		zap.Uint("expense_id", expense.ID),
		zap.Uint("user_id", ownerID),
		zap.String("amount", expense.Amount.String()),
		zap.String("category", string(expense.Category)),
	)
	return expense, nil
}

func (s *expenseService) Update(ctx context.Context, ownerID, id uint, patch model.ExpensePatch) (*model.Expense, error) {
	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	updated, err := s.storage.UpdateExpense(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update expense %d: %w", id, err)
	}
	s.logger.Info("expense updated", zap.Uint("expense_id", id), zap.Uint("user_id", ownerID))
	return updated, nil
}

// Delete removes an owned expense. Deleting an id that does not exist (or
// no longer exists) succeeds; deleting someone else's expense does not.
func (s *expenseService) Delete(ctx context.Context, ownerID, id uint) error {
	expense, err := s.storage.GetExpenseByID(ctx, id)
	if errors.Is(err, apperrors.ErrExpenseNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if expense.UserID != ownerID {
		return apperrors.ErrExpenseNotFound
	}

	if err := s.storage.DeleteExpense(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.logger.Info("expense deleted", zap.Uint("expense_id", id), zap.Uint("user_id", ownerID))
	return nil
}

// ListMonth returns the owner's expenses dated in the month containing day,
// keeping listing order.
func (s *expenseService) ListMonth(ctx context.Context, ownerID uint, day model.Date) ([]model.Expense, error) {
	expenses, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return FilterMonth(expenses, day), nil
}

func (s *expenseService) ExportMonth(ctx context.Context, ownerID uint, day model.Date, w io.Writer) error {
	expenses, err := s.ListMonth(ctx, ownerID, day)
	if err != nil {
		return err
	}
	if err := WriteCSV(w, expenses); err != nil {
		return fmt.Errorf("export expenses: %w", err)
	}
	return nil
}

func (s *expenseService) MonthlySummary(ctx context.Context, ownerID uint, day model.Date) (*MonthlySummary, error) {
	expenses, err := s.ListMonth(ctx, ownerID, day)
	if err != nil {
		return nil, err
	}
	return Summarize(expenses, day), nil
}

// FilterMonth keeps the expenses dated in the month containing day.
func FilterMonth(expenses []model.Expense, day model.Date) []model.Expense {
	out := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.SameMonth(day) {
			out = append(out, e)
		}
	}
	return out
}
