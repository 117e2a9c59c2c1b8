// Package core provides the ledger's domain types and the codec that turns
// user-supplied text into canonical amounts, dates and records.
//
// This file contains amount parsing. Every writer goes through ParseAmount so
// that the canonical string of an amount is identical everywhere, which is
// what makes dedup keys comparable.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of fractional digits kept for every amount.
	AmountScale = 2
	// MaxAmountDigits bounds the digit count of an amount, decimal point excluded.
	MaxAmountDigits = 12
)

// Money is a non-negative amount with exactly AmountScale fractional digits.
// The zero value is 0.00.
type Money struct {
	value decimal.Decimal
}

// ParseAmount converts text into a canonical Money value.
//
// Signs are rejected: the direction of a transaction is carried by its kind.
// Only ASCII digits and a single '.' are accepted. The value is rounded to
// two fractional digits, half away from zero.
//
// Examples:
//
//	ParseAmount("12")     -> 12.00
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("+10")    -> error
//	ParseAmount("-1")     -> error
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, Invalid("amount", ErrInvalidAmount, "amount is required")
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, Invalid("amount", ErrInvalidAmount, "do not use +/-; choose kind income or expense instead")
	}

	digits, points := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			points++
		default:
			return Money{}, Invalid("amount", ErrInvalidAmount, "use digits and '.' only, e.g. 1234.56")
		}
	}
	if digits == 0 || points > 1 {
		return Money{}, Invalid("amount", ErrInvalidAmount, "amount must be a valid number, e.g. 12.50")
	}
	if digits > MaxAmountDigits {
		return Money{}, Invalid("amount", ErrInvalidAmount, "amount has too many digits")
	}

	// decimal wants a digit on both sides of the point
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, Invalid("amount", ErrInvalidAmount, "amount must be a valid number, e.g. 12.50")
	}
	if d.IsNegative() {
		return Money{}, Invalid("amount", ErrInvalidAmount, "amount cannot be negative")
	}
	return Money{value: d.Round(AmountScale)}, nil
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromCents builds an amount from minor units.
func NewMoneyFromCents(cents int64) Money {
	return Money{value: decimal.New(cents, -AmountScale)}
}

// String returns the canonical form, always with two fractional digits.
func (m Money) String() string {
	return m.value.StringFixed(AmountScale)
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return m.value.Shift(AmountScale).IntPart()
}

func (m Money) Equal(n Money) bool { return m.value.Equal(n.value) }
func (m Money) IsZero() bool       { return m.value.IsZero() }

// Add returns the sum of two amounts.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value)} }
