package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/finance-schedule/pkg/constants"
)

// DayCount is the convention used to measure elapsed time for discounting.
// The same convention must drive both the daily rate derivation and every
// row's elapsed period, otherwise present values do not tie to principal.
type DayCount int

const (
	// DayCountActual counts exact calendar days and derives the daily rate
	// from an average month of 30.4375 days.
	DayCountActual DayCount = iota
	// DayCountCommercial counts whole months times 30 days and derives the
	// daily rate from a 30-day month.
	DayCountCommercial
)

func (d DayCount) String() string {
	switch d {
	case DayCountActual:
		return "actual"
	case DayCountCommercial:
		return "commercial"
	default:
		return fmt.Sprintf("DayCount(%d)", int(d))
	}
}

// ParseDayCount maps a configuration string onto a DayCount. An empty string
// selects DayCountActual.
func ParseDayCount(value string) (DayCount, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "actual", "calendar":
		return DayCountActual, nil
	case "commercial", "30", "30/360":
		return DayCountCommercial, nil
	default:
		return 0, fmt.Errorf("unknown day count %q, expected actual or commercial", value)
	}
}

// Valid reports whether d is a known convention.
func (d DayCount) Valid() bool {
	return d == DayCountActual || d == DayCountCommercial
}

// DaysPerMonth is the month length D used to convert a monthly rate into a
// daily rate under this convention.
func (d DayCount) DaysPerMonth() float64 {
	if d == DayCountCommercial {
		return constants.CommercialDaysPerMonth
	}
	return constants.ActualDaysPerMonth
}

// Elapsed measures the period between from and to under the convention.
// The result is negative when to precedes from.
func (d DayCount) Elapsed(from, to time.Time) int {
	if d == DayCountCommercial {
		return WholeMonths(from, to) * constants.CommercialDaysPerMonth
	}
	return DaysBetween(from, to)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// WholeMonths returns the calendar-month distance from a to b, ignoring days.
func WholeMonths(a, b time.Time) int {
	return (b.Year()-a.Year())*constants.MonthsPerYear + int(b.Month()) - int(a.Month())
}
