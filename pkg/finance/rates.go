// Package finance provides the compound-interest primitives used to price a
// payment schedule: rate conversion, present value discounting and price
// factors.
package finance

import (
	"fmt"
	"math"

	"github.com/iwvelando/finance-schedule/pkg/constants"
	"github.com/iwvelando/finance-schedule/pkg/datetime"
	"github.com/iwvelando/finance-schedule/pkg/mathutil"
)

// Rates holds effective rates equivalent to one nominal monthly rate. All
// values are fractions, not percentages.
type Rates struct {
	Monthly    float64 `json:"monthly"`
	Annual     float64 `json:"annual"`
	Semiannual float64 `json:"semiannual"`
	Daily      float64 `json:"daily"`
}

// IsZero reports whether no discounting applies.
func (r Rates) IsZero() bool {
	return r.Daily <= 0
}

// ConvertMonthlyRate converts a monthly rate percentage into equivalent
// annual, semiannual and daily effective rates under compound interest. The
// daily rate uses the month length of the given day-count convention.
func ConvertMonthlyRate(monthlyPercent float64, dayCount datetime.DayCount) (Rates, error) {
	if !mathutil.IsFinite(monthlyPercent) {
		return Rates{}, fmt.Errorf("monthly rate must be a finite number, got %v", monthlyPercent)
	}
	if monthlyPercent < 0 {
		return Rates{}, fmt.Errorf("monthly rate cannot be negative, got %v%%", monthlyPercent)
	}
	if monthlyPercent == 0 {
		return Rates{}, nil
	}

	m := monthlyPercent / constants.PercentageMultiplier
	return Rates{
		Monthly:    m,
		Annual:     math.Pow(1+m, constants.MonthsPerYear) - 1,
		Semiannual: math.Pow(1+m, constants.MonthsPerSemester) - 1,
		Daily:      math.Pow(1+m, 1/dayCount.DaysPerMonth()) - 1,
	}, nil
}
