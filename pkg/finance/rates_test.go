package finance

import (
	"math"
	"testing"

	"github.com/iwvelando/finance-schedule/pkg/datetime"
)

func TestConvertMonthlyRate(t *testing.T) {
	tests := []struct {
		name           string
		monthlyPercent float64
		dayCount       datetime.DayCount
		annual         float64
		semiannual     float64
	}{
		{
			name:           "One percent monthly",
			monthlyPercent: 1.0,
			dayCount:       datetime.DayCountActual,
			annual:         0.12682503013196977,
			semiannual:     0.06152015060099995,
		},
		{
			name:           "Tiered rate under commercial days",
			monthlyPercent: 0.79,
			dayCount:       datetime.DayCountCommercial,
			annual:         math.Pow(1.0079, 12) - 1,
			semiannual:     math.Pow(1.0079, 6) - 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates, err := ConvertMonthlyRate(tt.monthlyPercent, tt.dayCount)
			if err != nil {
				t.Fatalf("ConvertMonthlyRate() unexpected error: %v", err)
			}
			if math.Abs(rates.Monthly-tt.monthlyPercent/100) > 1e-12 {
				t.Errorf("Monthly = %v, expected %v", rates.Monthly, tt.monthlyPercent/100)
			}
			if math.Abs(rates.Annual-tt.annual) > 1e-9 {
				t.Errorf("Annual = %v, expected %v", rates.Annual, tt.annual)
			}
			if math.Abs(rates.Semiannual-tt.semiannual) > 1e-9 {
				t.Errorf("Semiannual = %v, expected %v", rates.Semiannual, tt.semiannual)
			}

			// Compounding the daily rate over one month must give back the monthly rate.
			monthly := math.Pow(1+rates.Daily, tt.dayCount.DaysPerMonth()) - 1
			if math.Abs(monthly-rates.Monthly) > 1e-12 {
				t.Errorf("daily rate compounds to %v per month, expected %v", monthly, rates.Monthly)
			}
		})
	}
}

func TestConvertMonthlyRateZero(t *testing.T) {
	rates, err := ConvertMonthlyRate(0, datetime.DayCountActual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rates != (Rates{}) {
		t.Errorf("zero rate should convert to all-zero rates, got %+v", rates)
	}
	if !rates.IsZero() {
		t.Error("zero rates should report IsZero")
	}
}

func TestConvertMonthlyRateRejectsInvalid(t *testing.T) {
	for _, rate := range []float64{-0.5, math.NaN(), math.Inf(1)} {
		if _, err := ConvertMonthlyRate(rate, datetime.DayCountActual); err == nil {
			t.Errorf("ConvertMonthlyRate(%v) expected error", rate)
		}
	}
}
