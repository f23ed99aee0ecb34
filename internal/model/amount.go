package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a fixed-point money value with two fraction digits. On the wire
// it is a JSON string such as "15.00"; in SQL it maps to decimal(10,2).
type Amount struct {
	decimal.Decimal
}

// MaxAmount is the largest value a decimal(10,2) column holds.
var MaxAmount = MustAmount("99999999.99")

// NewAmount rounds d to cents.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(2)}
}

// AmountFromFloat converts a float, rounding half away from zero to cents.
func AmountFromFloat(f float64) Amount {
	return NewAmount(decimal.NewFromFloat(f))
}

// MustAmount parses s and panics on failure. Intended for fixtures.
func MustAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return NewAmount(d)
}

// String formats the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal.StringFixed(2)
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

// Storable reports whether a fits the decimal(10,2) column.
func (a Amount) Storable() bool {
	return a.Decimal.Abs().LessThanOrEqual(MaxAmount.Decimal)
}

// Equal reports whether a and b are the same value.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both quoted strings and bare numbers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = NewAmount(d)
	return nil
}

// GormDataType sets the column type used by migrations.
func (Amount) GormDataType() string {
	return "decimal(10,2)"
}
