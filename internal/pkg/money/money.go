// internal/pkg/money/money.go
package money

import (
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for currency amounts
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round rounds an amount to cents, halves away from zero (2.345 -> 2.35)
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Scale)
}

// LineTotal returns unit price times quantity
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Percent returns pct percent of amount, unrounded
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// Min returns the smaller amount
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger amount
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MustParse parses a literal amount, panicking on malformed input.
// Only for constants and seed data.
func MustParse(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
