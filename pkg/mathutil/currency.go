// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/finance-schedule/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Cents converts a float amount into a decimal rounded to the cent. NaN and
// infinities become zero.
func Cents(val float64) decimal.Decimal {
	if !IsFinite(val) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val).Round(constants.CurrencyPlaces)
}

// RoundCents rounds a decimal amount to the cent.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(constants.CurrencyPlaces)
}
