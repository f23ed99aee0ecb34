package service

import (
	"github.com/shopspring/decimal"

	"expensetracker/internal/model"
)

// DailyTotal is the amount spent on one calendar day.
type DailyTotal struct {
	Date   model.Date   `json:"date"`
	Amount model.Amount `json:"amount"`
}

// CategoryTotal aggregates one category over a month.
type CategoryTotal struct {
	Category model.Category `json:"category"`
	Total    model.Amount   `json:"total"`
	Count    int            `json:"count"`
	Average  model.Amount   `json:"average"`
}

// MonthlySummary is the analytics view of one month.
type MonthlySummary struct {
	Month      string          `json:"month"`
	Total      model.Amount    `json:"total"`
	Daily      []DailyTotal    `json:"daily"`
	Categories []CategoryTotal `json:"categories"`
}

// Summarize aggregates the expenses that fall in the month containing day.
// Every day of the month appears in Daily, including days with no spending.
// Categories follow the fixed category order and only include categories
// with at least one expense.
func Summarize(expenses []model.Expense, day model.Date) *MonthlySummary {
	start := day.MonthStart()
	days := day.DaysInMonth()

	summary := &MonthlySummary{
		Month:      start.Format("2006-01"),
		Total:      model.NewAmount(decimal.Zero),
		Daily:      make([]DailyTotal, days),
		Categories: make([]CategoryTotal, 0, len(model.Categories)),
	}
	for i := range summary.Daily {
		summary.Daily[i] = DailyTotal{
			Date:   model.DateOf(start.AddDate(0, 0, i)),
			Amount: model.NewAmount(decimal.Zero),
		}
	}

	byCategory := make(map[model.Category]*CategoryTotal)
	for _, e := range expenses {
		if !e.Date.SameMonth(day) {
			continue
		}
		summary.Total = summary.Total.Add(e.Amount)

		slot := &summary.Daily[e.Date.Day()-1]
		slot.Amount = slot.Amount.Add(e.Amount)

		ct, ok := byCategory[e.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Category, Total: model.NewAmount(decimal.Zero)}
			byCategory[e.Category] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
		ct.Count++
	}

	for _, category := range model.Categories {
		ct, ok := byCategory[category]
		if !ok {
			continue
		}
		ct.Average = model.NewAmount(ct.Total.Decimal.Div(decimal.NewFromInt(int64(ct.Count))))
		summary.Categories = append(summary.Categories, *ct)
	}
	return summary
}
