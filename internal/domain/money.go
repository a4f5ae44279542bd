// Package domain contains core business types and interfaces.
//
// This file defines Money, an exact minor-unit amount used for every price
// the quote engine produces.
package domain

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is an amount of US dollars stored as whole cents.
//
// Prices such as a 2.50 per-bus discount are exact in cents, so quote
// arithmetic never touches floating point.
type Money int64

// Dollars returns n whole dollars.
func Dollars(n int64) Money {
	return Money(n * 100)
}

// Cents returns n cents.
func Cents(n int64) Money {
	return Money(n)
}

// Cents returns the amount in cents.
func (m Money) Cents() int64 {
	return int64(m)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return m + o
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return m - o
}

// Mul returns m multiplied by a unit count.
func (m Money) Mul(n int) Money {
	return m * Money(n)
}

// IsNegative reports whether m is below zero.
func (m Money) IsNegative() bool {
	return m < 0
}

// Decimal returns the amount in dollars as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the amount in dollars with two fraction digits, e.g. "27700.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Display renders the amount for people, e.g. "$27,700.00".
func (m Money) Display() string {
	s := m.Decimal().Abs().StringFixed(2)
	whole, frac := s[:len(s)-3], s[len(s)-3:]

	var grouped []byte
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, whole[i])
	}

	sign := ""
	if m < 0 {
		sign = "-"
	}
	return sign + "$" + string(grouped) + frac
}

// MarshalJSON encodes the amount as a fixed two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts either a decimal string ("147.50") or a JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	if !d.Shift(2).IsInteger() {
		return fmt.Errorf("money amount %q has sub-cent precision", s)
	}
	*m = Money(d.Shift(2).IntPart())
	return nil
}
