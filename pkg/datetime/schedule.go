package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/finance-schedule/pkg/constants"
)

// Period is the cadence of a periodic cash flow.
type Period int

const (
	// Monthly advances one calendar month per unit.
	Monthly Period = iota + 1
	// Semiannual advances six calendar months per unit.
	Semiannual
	// Annual advances twelve calendar months per unit.
	Annual
)

// Months returns the number of calendar months in one unit of the period.
func (p Period) Months() int {
	switch p {
	case Monthly:
		return 1
	case Semiannual:
		return constants.MonthsPerSemester
	case Annual:
		return constants.MonthsPerYear
	default:
		return 0
	}
}

func (p Period) String() string {
	switch p {
	case Monthly:
		return "monthly"
	case Semiannual:
		return "semiannual"
	case Annual:
		return "annual"
	default:
		return fmt.Sprintf("Period(%d)", int(p))
	}
}

// ParsePeriod maps a configuration string onto a Period.
func ParsePeriod(value string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "monthly":
		return Monthly, nil
	case "semiannual", "semi-annual":
		return Semiannual, nil
	case "annual", "yearly":
		return Annual, nil
	default:
		return 0, fmt.Errorf("unknown period %q, expected monthly, semiannual or annual", value)
	}
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Advance moves anchor forward by count periods using calendar-month
// arithmetic with carry into the year. The resulting day is targetDay, or the
// anchor's day when targetDay <= 0, clamped to the last day of the resulting
// month. A zero count only applies the day rule.
func Advance(anchor time.Time, period Period, count int, targetDay int) time.Time {
	day := targetDay
	if day <= 0 {
		day = anchor.Day()
	}

	totalMonths := int(anchor.Month()) + count*period.Months()
	yearCarry, monthIndex := floorDivMod(totalMonths-1, constants.MonthsPerYear)
	year := anchor.Year() + yearCarry
	month := time.Month(monthIndex + 1)

	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Series returns the due dates Advance(anchor, period, i, targetDay) for
// i = first..first+n-1.
func Series(anchor time.Time, period Period, first, n, targetDay int) []time.Time {
	if n <= 0 {
		return nil
	}
	dates := make([]time.Time, 0, n)
	for i := first; i < first+n; i++ {
		dates = append(dates, Advance(anchor, period, i, targetDay))
	}
	return dates
}

// floorDivMod divides with the remainder kept in [0, d).
func floorDivMod(n, d int) (int, int) {
	q, r := n/d, n%d
	if r < 0 {
		q--
		r += d
	}
	return q, r
}
