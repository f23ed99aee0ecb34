package handler

import (
	"encoding/json"
	"errors"
	"reflect"

	"github.com/shopspring/decimal"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/model"
)

// bindError reports a body that could not be decoded as a validation
// failure, naming the offending field when the decoder knows it.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.NewValidationError(map[string]string{typeErr.Field: "has the wrong type"})
	}
	return apperrors.NewValidationError(map[string]string{"body": "must be a JSON object"})
}

// AmountValue is a money amount as clients send it: a JSON number or a
// numeric string. Anything else fails decoding with a type error, so the
// decoder can name the field.
type AmountValue string

func (a *AmountValue) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil || n == "" {
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(AmountValue(""))}
	}
	*a = AmountValue(n)
	return nil
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ExpenseRequest is the body of POST /api/expenses. Amount accepts a JSON
// number or a numeric string.
type ExpenseRequest struct {
	Amount      *AmountValue `json:"amount" validate:"required,positive_amount,max_amount" swaggertype:"number"`
	Category    *string      `json:"category" validate:"required,expense_category"`
	Description *string      `json:"description" validate:"required,min=1"`
	Date        *string      `json:"date" validate:"required,calendar_date" example:"2024-03-01"`
}

// ToInput converts a validated request.
func (r ExpenseRequest) ToInput() model.ExpenseInput {
	date, _ := model.ParseDate(*r.Date)
	return model.ExpenseInput{
		Amount:      toAmount(*r.Amount),
		Category:    model.Category(*r.Category),
		Description: *r.Description,
		Date:        date,
	}
}

// ExpensePatchRequest is the body of PATCH /api/expenses/{id}. Every field is
// optional; absent fields keep their current value.
type ExpensePatchRequest struct {
	Amount      *AmountValue `json:"amount" validate:"omitempty,positive_amount,max_amount" swaggertype:"number"`
	Category    *string      `json:"category" validate:"omitempty,expense_category"`
	Description *string      `json:"description" validate:"omitempty,min=1"`
	Date        *string      `json:"date" validate:"omitempty,calendar_date" example:"2024-03-01"`
}

// ToPatch converts a validated request.
func (r ExpensePatchRequest) ToPatch() model.ExpensePatch {
	var patch model.ExpensePatch
	if r.Amount != nil {
		amount := toAmount(*r.Amount)
		patch.Amount = &amount
	}
	if r.Category != nil {
		category := model.Category(*r.Category)
		patch.Category = &category
	}
	if r.Description != nil {
		description := *r.Description
		patch.Description = &description
	}
	if r.Date != nil {
		date, _ := model.ParseDate(*r.Date)
		patch.Date = &date
	}
	return patch
}

func toAmount(n AmountValue) model.Amount {
	d, _ := decimal.NewFromString(string(n))
	return model.NewAmount(d)
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       uint       `json:"id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

// NewUserResponse strips the password hash from u.
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
