package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/model"
)

// ExpenseRepository defines expense persistence operations.
type ExpenseRepository interface {
	Create(ctx context.Context, ownerID uint, in model.ExpenseInput) (*model.Expense, error)
	FindByID(ctx context.Context, id uint) (*model.Expense, error)
	// ListByOwner returns the owner's expenses in insertion order.
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Expense, error)
	// Update merges only the supplied fields. ErrExpenseNotFound if absent.
	Update(ctx context.Context, id uint, patch model.ExpensePatch) (*model.Expense, error)
	// Delete removes the expense; a missing id is not an error.
	Delete(ctx context.Context, id uint) error
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository builds a GORM-backed repository.
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, ownerID uint, in model.ExpenseInput) (*model.Expense, error) {
	expense := model.NewExpense(ownerID, in)
	if err := r.db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return &expense, nil
}

func (r *expenseRepository) FindByID(ctx context.Context, id uint) (*model.Expense, error) {
	var expense model.Expense
	if err := r.db.WithContext(ctx).First(&expense, id).Error; err != nil {
		return nil, notFound(err, apperrors.ErrExpenseNotFound)
	}
	return &expense, nil
}

func (r *expenseRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Expense, error) {
	expenses := make([]model.Expense, 0)
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id").Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *expenseRepository) Update(ctx context.Context, id uint, patch model.ExpensePatch) (*model.Expense, error) {
	var expense model.Expense
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&expense, id).Error; err != nil {
			return notFound(err, apperrors.ErrExpenseNotFound)
		}
		columns := patchColumns(patch)
		if len(columns) == 0 {
			return nil
		}
		if err := tx.Model(&model.Expense{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		patch.Apply(&expense)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Expense{}, id).Error; err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// patchColumns lists only the columns the patch touches, so concurrent
// updates to other fields are not overwritten.
func patchColumns(patch model.ExpensePatch) map[string]any {
	columns := make(map[string]any, 4)
	if patch.Amount != nil {
		columns["amount"] = *patch.Amount
	}
	if patch.Category != nil {
		columns["category"] = *patch.Category
	}
	if patch.Description != nil {
		columns["description"] = *patch.Description
	}
	if patch.Date != nil {
		columns["date"] = *patch.Date
	}
	return columns
}
