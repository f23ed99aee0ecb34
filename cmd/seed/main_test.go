package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/cache"
	"expensetracker/internal/repository"
	"expensetracker/internal/service"
)

const dataset = `{
	"username": "demo",
	"password": "demo-password",
	"expenses": [
		{"amount": 12.5, "category": "Food & Dining", "description": "lunch", "date": "2024-03-01"},
		{"amount": "40", "category": "Transportation", "description": "train", "date": "2024-03-20"}
	]
}`

func TestSeed_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	storage := service.NewStorage(repository.NewMemorySet(), cache.Nop{}, nil)

	data, err := decodeSeedData(strings.NewReader(dataset))
	require.NoError(t, err)

	first, err := seed(ctx, storage, data)
	require.NoError(t, err)
	assert.Equal(t, seedResult{UserCreated: true, Created: 2}, first)

	second, err := seed(ctx, storage, data)
	require.NoError(t, err)
	assert.Equal(t, seedResult{Skipped: 2}, second)

	user, err := storage.GetUserByUsername(ctx, "demo")
	require.NoError(t, err)
	expenses, err := storage.GetExpensesByOwner(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "12.50", expenses[0].Amount.String())
	assert.NotEqual(t, "demo-password", user.Password)
}

func TestSeed_RejectsInvalidExpense(t *testing.T) {
	storage := service.NewStorage(repository.NewMemorySet(), cache.Nop{}, nil)
	data, err := decodeSeedData(strings.NewReader(`{"username":"demo","password":"pw","expenses":[{"amount":-1,"category":"Other","description":"x","date":"2024-03-01"}]}`))
	require.NoError(t, err)

	_, err = seed(context.Background(), storage, data)
	assert.ErrorContains(t, err, "amount")
}

func TestDecodeSeedData_RequiresCredentials(t *testing.T) {
	_, err := decodeSeedData(strings.NewReader(`{"expenses":[]}`))
	assert.Error(t, err)

	_, err = decodeSeedData(strings.NewReader(`not json`))
	assert.Error(t, err)
}
