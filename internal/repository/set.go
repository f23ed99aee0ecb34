package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"expensetracker/internal/model"
)

// Set bundles the repositories that make up the record store.
type Set struct {
	Users    UserRepository
	Expenses ExpenseRepository
}

// NewMemorySet returns a record store that lives in process memory.
func NewMemorySet() Set {
	return Set{
		Users:    NewMemoryUserRepository(),
		Expenses: NewMemoryExpenseRepository(),
	}
}

// NewGormSet returns a record store backed by db.
func NewGormSet(db *gorm.DB) Set {
	return Set{
		Users:    NewUserRepository(db),
		Expenses: NewExpenseRepository(db),
	}
}

// Migrate creates or updates the tables used by the GORM repositories.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.User{}, &model.Expense{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops the tables used by the GORM repositories. Missing tables are
// not an error.
func Reset(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Migrator().DropTable(&model.Expense{}, &model.User{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
