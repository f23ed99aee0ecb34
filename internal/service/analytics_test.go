package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/model"
)

func TestSummarize(t *testing.T) {
	expenses := []model.Expense{
		{ID: 1, Amount: model.MustAmount("10"), Category: model.CategoryTravel, Date: march(3)},
		{ID: 2, Amount: model.MustAmount("2.50"), Category: model.CategoryFood, Date: march(3)},
		{ID: 3, Amount: model.MustAmount("1"), Category: model.CategoryFood, Date: march(31)},
		{ID: 4, Amount: model.MustAmount("1"), Category: model.CategoryFood, Date: march(31)},
		{ID: 5, Amount: model.MustAmount("99"), Category: model.CategoryFood, Date: model.NewDate(2024, time.February, 29)},
	}

	s := Summarize(expenses, march(15))

	assert.Equal(t, "2024-03", s.Month)
	assert.Equal(t, "14.50", s.Total.String())

	require.Len(t, s.Daily, 31)
	assert.Equal(t, march(1), s.Daily[0].Date)
	assert.Equal(t, "0.00", s.Daily[0].Amount.String())
	assert.Equal(t, "12.50", s.Daily[2].Amount.String())
	assert.Equal(t, "2.00", s.Daily[30].Amount.String())

	require.Len(t, s.Categories, 2)
	food, travel := s.Categories[0], s.Categories[1]
	assert.Equal(t, model.CategoryFood, food.Category, "fixed category order")
	assert.Equal(t, 3, food.Count)
	assert.Equal(t, "4.50", food.Total.String())
	assert.Equal(t, "1.50", food.Average.String())
	assert.Equal(t, model.CategoryTravel, travel.Category)
	assert.Equal(t, "10.00", travel.Average.String())
}

func TestSummarize_EmptyMonth(t *testing.T) {
	s := Summarize(nil, model.NewDate(2023, time.February, 10))

	assert.Equal(t, "0.00", s.Total.String())
	assert.Len(t, s.Daily, 28)
	assert.NotNil(t, s.Categories)
	assert.Empty(t, s.Categories)
}

func TestSummarize_AverageRoundsToCents(t *testing.T) {
	expenses := []model.Expense{
		{Amount: model.MustAmount("10"), Category: model.CategoryBills, Date: march(1)},
		{Amount: model.MustAmount("10"), Category: model.CategoryBills, Date: march(2)},
		{Amount: model.MustAmount("10.01"), Category: model.CategoryBills, Date: march(3)},
	}
	s := Summarize(expenses, march(1))
	assert.Equal(t, "10.00", s.Categories[0].Average.String())
}
