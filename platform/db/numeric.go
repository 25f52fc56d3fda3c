package db

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Numeric columns are selected as ::text and written as $n::numeric so money
// never passes through float64.

// ParseNumeric converts a NUMERIC column read as text into a decimal.
func ParseNumeric(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", raw, err)
	}
	return d, nil
}

// NumericArg renders a decimal for a $n::numeric placeholder.
func NumericArg(d decimal.Decimal) string {
	return d.String()
}
