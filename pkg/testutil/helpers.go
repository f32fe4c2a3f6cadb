// Package testutil provides common utility functions for testing.
package testutil

import (
	"testing"

	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/pkg/loans"
	"github.com/shopspring/decimal"
)

// FindResult finds a simulation result by name.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []simulation.Result, name string) *simulation.Result {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// SumPresentValues adds the present values of the schedule's flows.
func SumPresentValues(schedule *loans.Schedule) decimal.Decimal {
	sum := decimal.Zero
	for _, row := range schedule.Flows() {
		sum = sum.Add(row.PresentValue)
	}
	return sum
}

// AssertScheduleInvariants fails t unless the schedule's flows are ordered,
// end in a single Total row, and their present values add up to the
// financed principal to the cent.
func AssertScheduleInvariants(t testing.TB, name string, schedule *loans.Schedule) {
	t.Helper()
	if schedule == nil {
		t.Fatalf("%s: schedule is nil", name)
	}

	total, ok := schedule.Total()
	if !ok {
		t.Fatalf("%s: schedule has no Total row", name)
	}
	if !total.PresentValue.Equal(schedule.Terms.Principal) {
		t.Errorf("%s: Total present value %s, expected principal %s",
			name, total.PresentValue.StringFixed(2), schedule.Terms.Principal.StringFixed(2))
	}
	if len(schedule.Warnings) == 0 {
		if sum := SumPresentValues(schedule); !sum.Equal(schedule.Terms.Principal) {
			t.Errorf("%s: present values add up to %s, expected %s",
				name, sum.StringFixed(2), schedule.Terms.Principal.StringFixed(2))
		}
	}

	flows := schedule.Flows()
	for i, row := range flows {
		if row.IsTotal() {
			t.Errorf("%s: Total row at position %d", name, i)
		}
		if i == 0 {
			continue
		}
		prev := flows[i-1]
		if row.DueDate.Before(prev.DueDate) {
			t.Errorf("%s: row %s due %s before %s", name, row.Item, row.DueDate.Format("2006-01-02"), prev.DueDate.Format("2006-01-02"))
		}
		if row.DueDate.Equal(prev.DueDate) && row.Kind < prev.Kind {
			t.Errorf("%s: %s listed after %s on the same date", name, row.Item, prev.Item)
		}
	}
}
