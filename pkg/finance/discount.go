package finance

import (
	"math"
	"time"

	"github.com/iwvelando/finance-schedule/pkg/datetime"
	"github.com/iwvelando/finance-schedule/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// PresentValue discounts a nominal amount due after elapsed periods at the
// given daily rate, rounded to the cent. Non-positive periods and rates leave
// the nominal unchanged.
func PresentValue(nominal decimal.Decimal, dailyRate float64, elapsed int) decimal.Decimal {
	if elapsed <= 0 || dailyRate <= 0 {
		return nominal
	}
	pv := nominal.InexactFloat64() / math.Pow(1+dailyRate, float64(elapsed))
	if !mathutil.IsFinite(pv) {
		return nominal
	}
	return mathutil.Cents(pv)
}

// DiscountFactor returns 1/(1+dailyRate)^elapsed, or 0 for non-positive
// periods.
func DiscountFactor(dailyRate float64, elapsed int) float64 {
	if elapsed <= 0 {
		return 0
	}
	if dailyRate <= 0 {
		return 1
	}
	return 1 / math.Pow(1+dailyRate, float64(elapsed))
}

// PriceFactor sums the discount factors of the due dates measured from
// anchor. With no discounting every flow counts as one. Dates on or before the
// anchor are excluded when discounting.
func PriceFactor(dueDates []time.Time, anchor time.Time, dailyRate float64, dayCount datetime.DayCount) float64 {
	if dailyRate <= 0 {
		return float64(len(dueDates))
	}
	factor := 0.0
	for _, due := range dueDates {
		factor += DiscountFactor(dailyRate, dayCount.Elapsed(anchor, due))
	}
	return factor
}

// LevelPayment inverts a price factor into the level payment that funds
// share, rounded to the cent. A non-positive factor yields zero.
func LevelPayment(share decimal.Decimal, factor float64) decimal.Decimal {
	if factor <= 0 || !mathutil.IsFinite(factor) {
		return decimal.Zero
	}
	return mathutil.RoundCents(share.Div(decimal.NewFromFloat(factor)))
}
