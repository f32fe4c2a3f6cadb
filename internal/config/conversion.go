package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/finance-schedule/pkg/datetime"
	"github.com/iwvelando/finance-schedule/pkg/loans"
	"github.com/iwvelando/finance-schedule/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Simulation describes one financing to schedule. Amounts are in currency
// units; rates are monthly percentages.
type Simulation struct {
	Name   string `yaml:"name" json:"name"`
	Active bool   `yaml:"active" json:"active"`

	// Either Principal or Price (with an optional DownPayment) is required.
	Principal   float64 `yaml:"principal,omitempty" json:"principal,omitempty"`
	Price       float64 `yaml:"price,omitempty" json:"price,omitempty"`
	DownPayment float64 `yaml:"downPayment,omitempty" json:"downPayment,omitempty" mapstructure:"downPayment"`

	// MonthlyRate falls back to the rate table when nil.
	MonthlyRate *float64 `yaml:"monthlyRate,omitempty" json:"monthlyRate,omitempty" mapstructure:"monthlyRate"`
	// Anchor is the contract date; empty means today.
	Anchor   string `yaml:"anchor,omitempty" json:"anchor,omitempty"`
	DayCount string `yaml:"dayCount,omitempty" json:"dayCount,omitempty" mapstructure:"dayCount"`

	Modality       string `yaml:"modality,omitempty" json:"modality,omitempty"`
	BalloonCadence string `yaml:"balloonCadence,omitempty" json:"balloonCadence,omitempty" mapstructure:"balloonCadence"`
	Installments   int    `yaml:"installments" json:"installments"`
	Balloons       int    `yaml:"balloons,omitempty" json:"balloons,omitempty"`

	InstallmentValue float64 `yaml:"installmentValue,omitempty" json:"installmentValue,omitempty" mapstructure:"installmentValue"`
	BalloonValue     float64 `yaml:"balloonValue,omitempty" json:"balloonValue,omitempty" mapstructure:"balloonValue"`

	BalloonPolicy     string `yaml:"balloonPolicy,omitempty" json:"balloonPolicy,omitempty" mapstructure:"balloonPolicy"`
	FirstBalloonMonth int    `yaml:"firstBalloonMonth,omitempty" json:"firstBalloonMonth,omitempty" mapstructure:"firstBalloonMonth"`
	BalloonMonths     []int  `yaml:"balloonMonths,omitempty" json:"balloonMonths,omitempty" mapstructure:"balloonMonths"`
}

// Terms converts a simulation into engine terms. Configuration defaults fill
// the day count and the rate; now stands in for a missing anchor. Every
// failure wraps a *loans.ValidationError.
func (c *Configuration) Terms(sim Simulation, now time.Time) (loans.FinancingTerms, error) {
	terms, err := c.terms(sim, now)
	if err != nil {
		return loans.FinancingTerms{}, fmt.Errorf("simulation %q: %w", sim.Name, err)
	}
	return terms, nil
}

func (c *Configuration) terms(sim Simulation, now time.Time) (loans.FinancingTerms, error) {
	var terms loans.FinancingTerms

	principal, err := sim.principal()
	if err != nil {
		return terms, err
	}
	terms.Principal = principal

	if sim.MonthlyRate != nil {
		terms.MonthlyRatePercent = *sim.MonthlyRate
	} else {
		rate, ok := c.RateTable.RateFor(sim.Installments)
		if !ok {
			return terms, invalid("monthlyRate", fmt.Sprintf("no rate table tier covers %d installments", sim.Installments))
		}
		terms.MonthlyRatePercent = rate
	}

	if strings.TrimSpace(sim.Anchor) == "" {
		terms.Anchor = datetime.Date(now)
	} else if terms.Anchor, err = datetime.ParseDate(sim.Anchor); err != nil {
		return terms, invalid("anchor", err.Error())
	}

	dayCount := sim.DayCount
	if strings.TrimSpace(dayCount) == "" {
		dayCount = c.Engine.DayCount
	}
	if terms.DayCount, err = datetime.ParseDayCount(dayCount); err != nil {
		return terms, invalid("dayCount", err.Error())
	}

	modality := sim.Modality
	if strings.TrimSpace(modality) == "" {
		modality = loans.InstallmentsOnly.String()
	}
	if terms.Modality, err = loans.ParseModality(modality); err != nil {
		return terms, invalid("modality", err.Error())
	}

	if strings.TrimSpace(sim.BalloonCadence) != "" {
		if terms.BalloonCadence, err = datetime.ParsePeriod(sim.BalloonCadence); err != nil {
			return terms, invalid("balloonCadence", err.Error())
		}
	}

	if terms.BalloonPolicy, err = loans.ParseBalloonPolicy(sim.BalloonPolicy); err != nil {
		return terms, invalid("balloonPolicy", err.Error())
	}

	terms.Installments = sim.Installments
	terms.Balloons = sim.Balloons
	terms.FixedInstallment = mathutil.Cents(sim.InstallmentValue)
	terms.FixedBalloon = mathutil.Cents(sim.BalloonValue)
	terms.FirstBalloonMonth = sim.FirstBalloonMonth
	terms.BalloonMonths = append([]int(nil), sim.BalloonMonths...)
	return terms, nil
}

func (sim Simulation) principal() (decimal.Decimal, error) {
	switch {
	case sim.Principal != 0 && sim.Price != 0:
		return decimal.Zero, invalid("principal", "set either principal or price, not both")
	case sim.Principal != 0:
		if !mathutil.IsFinite(sim.Principal) || sim.Principal < 0 {
			return decimal.Zero, invalid("principal", fmt.Sprintf("must be positive, got %v", sim.Principal))
		}
		return mathutil.Cents(sim.Principal), nil
	default:
		return loans.FinancedPrincipal(mathutil.Cents(sim.Price), mathutil.Cents(sim.DownPayment))
	}
}

func invalid(field, reason string) error {
	return &loans.ValidationError{Field: field, Reason: reason}
}
