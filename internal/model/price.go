package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.New(100, 0)

// ParsePrice converts a catalog decimal price ("2900.50", "1620.75") to
// cents. Values with more than 2 decimal places are rounded half-up.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d.Mul(centsPerUnit).Round(0).IntPart(), nil
}

// FormatPrice renders cents as a fixed 2-decimal string, e.g. 10500 → "105.00".
func FormatPrice(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
