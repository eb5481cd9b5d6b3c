// Package types provides the money type shared by pricing, ledgers and sales.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// CurrencyPlaces is the number of fractional digits kept on stored amounts.
const CurrencyPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromInt converts whole currency units (e.g. redeemed points) to Money.
func FromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round2 rounds to currency precision, half away from zero
// (2.345 -> 2.35, -2.345 -> -2.35).
func Round2(m Money) Money {
	return m.Round(CurrencyPlaces)
}

// Percent returns pct percent of m without rounding.
func Percent(m Money, pct Money) Money {
	return m.Mul(pct).Div(hundred)
}

// NonNegative clamps m at zero.
func NonNegative(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}
