// Package money wraps shopspring/decimal for exact display-precision
// monetary values at the report-render boundary. The simulation core
// and the config loader operate on float64 throughout (see
// internal/numeric); Money is used only where internal/report rounds
// a dollar figure for display.
package money

import "github.com/shopspring/decimal"

// Money represents a monetary amount with exact decimal precision.
type Money struct {
	decimal.Decimal
}

// New creates a Money from a float64.
func New(value float64) Money {
	return Money{decimal.NewFromFloat(value)}
}

// NewFromDecimal creates a Money from a decimal.Decimal.
func NewFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// NewFromString creates a Money from a string.
func NewFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// Round rounds to cents.
func (m Money) Round() Money {
	return Money{m.Decimal.Round(2)}
}

// Add adds another Money amount.
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Sub subtracts another Money amount.
func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// Mul multiplies by a decimal factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{m.Decimal.Mul(factor)}
}

// Div divides by a decimal factor.
func (m Money) Div(factor decimal.Decimal) Money {
	return Money{m.Decimal.Div(factor)}
}

// GreaterThan reports whether m exceeds other.
func (m Money) GreaterThan(other Money) bool { return m.Decimal.GreaterThan(other.Decimal) }

// GreaterThanOrEqual reports whether m is at least other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.Decimal.GreaterThanOrEqual(other.Decimal)
}

// LessThan reports whether m is below other.
func (m Money) LessThan(other Money) bool { return m.Decimal.LessThan(other.Decimal) }

// LessThanOrEqual reports whether m is at most other.
func (m Money) LessThanOrEqual(other Money) bool { return m.Decimal.LessThanOrEqual(other.Decimal) }

// Equal reports whether m equals other.
func (m Money) Equal(other Money) bool { return m.Decimal.Equal(other.Decimal) }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Decimal.IsZero() }

// IsPositive reports whether the amount is positive.
func (m Money) IsPositive() bool { return m.Decimal.IsPositive() }

// IsNegative reports whether the amount is negative.
func (m Money) IsNegative() bool { return m.Decimal.IsNegative() }

// Min returns the lesser of a and b.
func Min(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the greater of a and b.
func Max(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Zero returns a zero Money amount.
func Zero() Money {
	return Money{decimal.Zero}
}

// Float64 returns the amount as a float64, for crossing into the
// float64-based simulation core.
func (m Money) Float64() float64 {
	f, _ := m.Decimal.Float64()
	return f
}

// String returns the fixed-2-decimal string representation.
func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

// Format formats the amount with a leading currency symbol.
func (m Money) Format() string {
	return "$" + m.String()
}
