package model

// Expense is a single spending record owned by one user. UserID never
// changes after creation.
type Expense struct {
	ID          uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      uint     `json:"user_id" gorm:"index;not null"`
	Amount      Amount   `json:"amount" gorm:"not null"`
	Category    Category `json:"category" gorm:"size:64;not null"`
	Description string   `json:"description" gorm:"type:text;not null"`
	Date        Date     `json:"date" gorm:"not null;index"`
}

// ExpenseInput carries every field needed to create an expense.
type ExpenseInput struct {
	Amount      Amount
	Category    Category
	Description string
	Date        Date
}

// ExpensePatch is a partial update; nil fields are left untouched.
type ExpensePatch struct {
	Amount      *Amount
	Category    *Category
	Description *string
	Date        *Date
}

// Empty reports whether the patch changes nothing.
func (p ExpensePatch) Empty() bool {
	return p.Amount == nil && p.Category == nil && p.Description == nil && p.Date == nil
}

// Apply merges the supplied fields into e.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
}

// NewExpense stamps owner onto input.
func NewExpense(ownerID uint, in ExpenseInput) Expense {
	return Expense{
		UserID:      ownerID,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
	}
}
