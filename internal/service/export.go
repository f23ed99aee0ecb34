package service

import (
	"encoding/csv"
	"io"

	"expensetracker/internal/model"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{"Date", "Category", "Description", "Amount"}

// WriteCSV writes expenses as CSV with a header row. Amounts always carry
// two decimals.
func WriteCSV(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range expenses {
		row := []string{e.Date.String(), string(e.Category), e.Description, e.Amount.String()}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
