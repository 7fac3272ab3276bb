package domain

import (
	"fmt"
	"math"
)

// Money is a fixed-point monetary amount in cents. All arithmetic in the
// pricing and reporting paths stays in integer cents so accumulation never
// drifts the way binary floating point does. Negative amounts are legal and
// represent refunds.
type Money int64

// Cents constructs a Money value from an integer number of cents.
func Cents(v int64) Money { return Money(v) }

// MoneyFromFloat converts a float dollar amount, rounding half away from zero
// to the nearest cent. Used only at ingestion boundaries (config, legacy data).
func MoneyFromFloat(dollars float64) Money {
	return Money(math.Round(dollars * 100))
}

// Cents returns the raw cent count.
func (m Money) Cents() int64 { return int64(m) }

// Add returns m + other.
func (m Money) Add(other Money) Money { return m + other }

// Sub returns m - other.
func (m Money) Sub(other Money) Money { return m - other }

// MulInt scales the amount by an integer quantity.
func (m Money) MulInt(qty int) Money { return m * Money(qty) }

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// IsNegative reports whether the amount is below zero (a refund/return).
func (m Money) IsNegative() bool { return m < 0 }

// IsZero reports whether the amount is exactly zero (a voided order).
func (m Money) IsZero() bool { return m == 0 }

// Float64 returns the amount in dollars. Reporting collaborators that store
// totals as decimal columns use this at the persistence boundary only.
func (m Money) Float64() float64 { return float64(m) / 100 }

// String renders the amount as a plain decimal, e.g. "3.50" or "-0.75".
// Currency symbols and locale formatting belong to the presentation layer.
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
