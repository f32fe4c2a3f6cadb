package config

import (
	"fmt"
	"sort"

	"github.com/iwvelando/finance-schedule/pkg/mathutil"
)

// RateTier assigns a monthly rate to a range of installment counts.
type RateTier struct {
	MinInstallments int `yaml:"minInstallments" mapstructure:"minInstallments"`
	// MaxInstallments is inclusive; zero leaves the tier open-ended.
	MaxInstallments int     `yaml:"maxInstallments,omitempty" mapstructure:"maxInstallments"`
	MonthlyRate     float64 `yaml:"monthlyRate" mapstructure:"monthlyRate"` // percent
}

// Contains reports whether n installments fall in the tier.
func (t RateTier) Contains(n int) bool {
	return n >= t.MinInstallments && (t.MaxInstallments == 0 || n <= t.MaxInstallments)
}

// RateTable maps installment counts onto monthly rates.
type RateTable []RateTier

// DefaultRateTable is the table used when the configuration declares none.
func DefaultRateTable() RateTable {
	return RateTable{
		{MinInstallments: 1, MaxInstallments: 36, MonthlyRate: 0},
		{MinInstallments: 37, MaxInstallments: 48, MonthlyRate: 0.395},
		{MinInstallments: 49, MonthlyRate: 0.79},
	}
}

// RateFor returns the monthly rate percentage of the first tier containing n.
func (rt RateTable) RateFor(n int) (float64, bool) {
	for _, tier := range rt {
		if tier.Contains(n) {
			return tier.MonthlyRate, true
		}
	}
	return 0, false
}

// Validate checks that tiers are well formed and do not overlap.
func (rt RateTable) Validate() error {
	tiers := append(RateTable(nil), rt...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinInstallments < tiers[j].MinInstallments })

	for i, tier := range tiers {
		if tier.MinInstallments < 1 {
			return fmt.Errorf("rate table: tier minimum must be at least 1, got %d", tier.MinInstallments)
		}
		if tier.MaxInstallments != 0 && tier.MaxInstallments < tier.MinInstallments {
			return fmt.Errorf("rate table: tier %d-%d is empty", tier.MinInstallments, tier.MaxInstallments)
		}
		if !mathutil.IsFinite(tier.MonthlyRate) || tier.MonthlyRate < 0 {
			return fmt.Errorf("rate table: tier starting at %d has invalid rate %v", tier.MinInstallments, tier.MonthlyRate)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if prev.MaxInstallments == 0 || prev.MaxInstallments >= tier.MinInstallments {
			return fmt.Errorf("rate table: tier starting at %d overlaps the tier starting at %d",
				tier.MinInstallments, prev.MinInstallments)
		}
	}
	return nil
}
