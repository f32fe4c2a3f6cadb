// Package loans builds payment schedules for a financed principal: level
// installments and balloon payments whose present values sum to the
// principal.
package loans

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/finance-schedule/pkg/constants"
	"github.com/iwvelando/finance-schedule/pkg/datetime"
	"github.com/iwvelando/finance-schedule/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Modality is the payment structure of a financing.
type Modality int

const (
	// InstallmentsOnly pays the principal with monthly installments.
	InstallmentsOnly Modality = iota + 1
	// InstallmentsPlusBalloons layers balloon payments over monthly installments.
	InstallmentsPlusBalloons
	// BalloonsOnlyAnnual pays the principal with yearly balloons.
	BalloonsOnlyAnnual
	// BalloonsOnlySemiannual pays the principal with balloons every six months.
	BalloonsOnlySemiannual
)

func (m Modality) String() string {
	switch m {
	case InstallmentsOnly:
		return "installments"
	case InstallmentsPlusBalloons:
		return "installments+balloons"
	case BalloonsOnlyAnnual:
		return "balloons-annual"
	case BalloonsOnlySemiannual:
		return "balloons-semiannual"
	default:
		return fmt.Sprintf("Modality(%d)", int(m))
	}
}

// ParseModality maps a configuration string onto a Modality.
func ParseModality(value string) (Modality, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "installments", "monthly":
		return InstallmentsOnly, nil
	case "installments+balloons", "installments-balloons", "mixed":
		return InstallmentsPlusBalloons, nil
	case "balloons-annual":
		return BalloonsOnlyAnnual, nil
	case "balloons-semiannual":
		return BalloonsOnlySemiannual, nil
	default:
		return 0, fmt.Errorf("unknown modality %q", value)
	}
}

func (m Modality) valid() bool {
	return m >= InstallmentsOnly && m <= BalloonsOnlySemiannual
}

// HasInstallments reports whether the modality produces installment rows.
func (m Modality) HasInstallments() bool {
	return m == InstallmentsOnly || m == InstallmentsPlusBalloons
}

// HasBalloons reports whether the modality produces balloon rows.
func (m Modality) HasBalloons() bool {
	return m == InstallmentsPlusBalloons || m == BalloonsOnlyAnnual || m == BalloonsOnlySemiannual
}

// BalloonPolicy decides where balloons fall in the mixed modality.
type BalloonPolicy int

const (
	// StandardInterval places balloon j at installment month j*interval.
	StandardInterval BalloonPolicy = iota
	// AnchoredToFirstDueMonth places the first balloon at a chosen installment
	// month and chains the rest one balloon period apart.
	AnchoredToFirstDueMonth
	// ExplicitMonthList places one balloon at each listed installment month.
	ExplicitMonthList
)

func (p BalloonPolicy) String() string {
	switch p {
	case StandardInterval:
		return "standard"
	case AnchoredToFirstDueMonth:
		return "first-due-month"
	case ExplicitMonthList:
		return "months"
	default:
		return fmt.Sprintf("BalloonPolicy(%d)", int(p))
	}
}

// ParseBalloonPolicy maps a configuration string onto a BalloonPolicy. An
// empty string selects StandardInterval.
func ParseBalloonPolicy(value string) (BalloonPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "standard":
		return StandardInterval, nil
	case "first-due-month", "anchored":
		return AnchoredToFirstDueMonth, nil
	case "months", "explicit":
		return ExplicitMonthList, nil
	default:
		return 0, fmt.Errorf("unknown balloon policy %q", value)
	}
}

// FlowKind classifies a schedule row.
type FlowKind int

const (
	Installment FlowKind = iota + 1
	Balloon
	Total
)

func (k FlowKind) String() string {
	switch k {
	case Installment:
		return "Installment"
	case Balloon:
		return "Balloon"
	case Total:
		return "Total"
	default:
		return fmt.Sprintf("FlowKind(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k FlowKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind rendered by MarshalText.
func (k *FlowKind) UnmarshalText(text []byte) error {
	for _, candidate := range []FlowKind{Installment, Balloon, Total} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown flow kind %q", text)
}

// FinancingTerms is the complete input of one schedule computation.
type FinancingTerms struct {
	// Principal is the financed amount, positive.
	Principal decimal.Decimal
	// MonthlyRatePercent is the nominal monthly rate as a percentage.
	MonthlyRatePercent float64
	// Anchor is the date all periods are measured from. Its day of month is
	// the due day of every flow.
	Anchor time.Time
	// DayCount selects how elapsed time is measured for discounting.
	DayCount datetime.DayCount

	Modality Modality
	// BalloonCadence is the balloon period in the mixed modality, Annual or
	// Semiannual. Zero means Annual.
	BalloonCadence datetime.Period

	// Installments is the installment count. In the balloon-only modalities
	// it is the term in months used to derive the balloon count.
	Installments int
	// Balloons is the balloon count; zero derives it from the term.
	Balloons int

	// FixedInstallment and FixedBalloon are caller-fixed values; zero means
	// not supplied. Only the mixed modality accepts them, one at a time.
	FixedInstallment decimal.Decimal
	FixedBalloon     decimal.Decimal

	BalloonPolicy BalloonPolicy
	// FirstBalloonMonth is the installment month of the first balloon under
	// AnchoredToFirstDueMonth. Zero means min(12, Installments).
	FirstBalloonMonth int
	// BalloonMonths lists the installment months of each balloon under
	// ExplicitMonthList.
	BalloonMonths []int
}

// FinancedPrincipal returns price minus down payment, rounded to the cent.
func FinancedPrincipal(price, downPayment decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, invalid("price", "must be positive, got %s", price)
	}
	if downPayment.IsNegative() {
		return decimal.Zero, invalid("downPayment", "cannot be negative, got %s", downPayment)
	}
	if downPayment.GreaterThanOrEqual(price) {
		return decimal.Zero, invalid("downPayment", "%s must be lower than the price %s", downPayment, price)
	}
	return mathutil.RoundCents(price.Sub(downPayment)), nil
}

// DeriveBalloonCount returns the balloon count implied by a term of
// installments months.
func DeriveBalloonCount(modality Modality, cadence datetime.Period, installments int) int {
	if installments <= 0 {
		return 0
	}
	switch modality {
	case InstallmentsPlusBalloons:
		if cadence == 0 {
			cadence = datetime.Annual
		}
		if cadence.Months() == 0 {
			return 0
		}
		return installments / cadence.Months()
	case BalloonsOnlyAnnual:
		return ceilDiv(installments, constants.MonthsPerYear)
	case BalloonsOnlySemiannual:
		return ceilDiv(installments, constants.MonthsPerSemester)
	default:
		return 0
	}
}

// balloonPeriod is the period separating consecutive balloons.
func (t FinancingTerms) balloonPeriod() datetime.Period {
	switch t.Modality {
	case BalloonsOnlyAnnual:
		return datetime.Annual
	case BalloonsOnlySemiannual:
		return datetime.Semiannual
	default:
		if t.BalloonCadence == 0 {
			return datetime.Annual
		}
		return t.BalloonCadence
	}
}

// normalize validates the terms and returns a copy with derived counts and
// defaults filled in.
func (t FinancingTerms) normalize() (FinancingTerms, error) {
	if !t.Principal.IsPositive() {
		return t, invalid("principal", "must be positive, got %s", t.Principal)
	}
	if !mathutil.IsFinite(t.MonthlyRatePercent) || t.MonthlyRatePercent < 0 {
		return t, invalid("monthlyRate", "must be a non-negative number, got %v", t.MonthlyRatePercent)
	}
	if t.Anchor.IsZero() {
		return t, invalid("anchor", "is required")
	}
	if !t.DayCount.Valid() {
		return t, invalid("dayCount", "unknown convention %s", t.DayCount)
	}
	if !t.Modality.valid() {
		return t, invalid("modality", "unknown modality %s", t.Modality)
	}
	if t.Installments < 0 {
		return t, invalid("installments", "cannot be negative, got %d", t.Installments)
	}
	if t.Balloons < 0 {
		return t, invalid("balloons", "cannot be negative, got %d", t.Balloons)
	}
	if t.FixedInstallment.IsNegative() {
		return t, invalid("installmentValue", "cannot be negative, got %s", t.FixedInstallment)
	}
	if t.FixedBalloon.IsNegative() {
		return t, invalid("balloonValue", "cannot be negative, got %s", t.FixedBalloon)
	}

	n := t
	n.Anchor = datetime.Date(t.Anchor)
	n.FixedInstallment = mathutil.RoundCents(t.FixedInstallment)
	n.FixedBalloon = mathutil.RoundCents(t.FixedBalloon)
	n.BalloonMonths = nil

	if t.Modality != InstallmentsPlusBalloons {
		if !t.FixedInstallment.IsZero() || !t.FixedBalloon.IsZero() {
			return t, invalid("installmentValue", "fixed values are only accepted in the %s modality", InstallmentsPlusBalloons)
		}
		if t.BalloonPolicy != StandardInterval {
			return t, invalid("balloonPolicy", "%s only applies to the %s modality", t.BalloonPolicy, InstallmentsPlusBalloons)
		}
		if t.BalloonCadence != 0 && t.BalloonCadence != n.balloonPeriod() {
			return t, invalid("balloonCadence", "%s contradicts the %s modality", t.BalloonCadence, t.Modality)
		}
	} else if c := t.BalloonCadence; c != 0 && c != datetime.Annual && c != datetime.Semiannual {
		return t, invalid("balloonCadence", "must be annual or semiannual, got %s", c)
	}

	if !t.Modality.HasInstallments() {
		// The installment count is only the term here.
		if n.Balloons == 0 {
			n.Balloons = DeriveBalloonCount(t.Modality, 0, t.Installments)
		}
		return n, nil
	}

	if t.Modality == InstallmentsOnly {
		n.Balloons = 0
		return n, n.checkFixedValues()
	}

	switch t.BalloonPolicy {
	case StandardInterval:
		if n.Balloons == 0 {
			n.Balloons = DeriveBalloonCount(t.Modality, n.balloonPeriod(), t.Installments)
		}
	case AnchoredToFirstDueMonth:
		if n.Balloons == 0 {
			n.Balloons = DeriveBalloonCount(t.Modality, n.balloonPeriod(), t.Installments)
		}
		if n.FirstBalloonMonth == 0 {
			n.FirstBalloonMonth = min(constants.DefaultFirstBalloonMonth, t.Installments)
		}
		if n.Balloons > 0 && (n.FirstBalloonMonth < 1 || n.FirstBalloonMonth > t.Installments) {
			return t, invalid("firstBalloonMonth", "must be within 1..%d, got %d", t.Installments, n.FirstBalloonMonth)
		}
	case ExplicitMonthList:
		months, err := explicitMonths(t.BalloonMonths, t.Installments)
		if err != nil {
			return t, err
		}
		if t.Balloons != 0 && t.Balloons != len(months) {
			return t, invalid("balloons", "count %d contradicts the %d listed balloon months", t.Balloons, len(months))
		}
		n.BalloonMonths = months
		n.Balloons = len(months)
	default:
		return t, invalid("balloonPolicy", "unknown policy %s", t.BalloonPolicy)
	}

	return n, n.checkFixedValues()
}

func (t FinancingTerms) checkFixedValues() error {
	fixedI, fixedB := !t.FixedInstallment.IsZero(), !t.FixedBalloon.IsZero()
	if fixedI && t.Installments == 0 {
		return invalid("installmentValue", "supplied but there are no installments")
	}
	if fixedB && t.Balloons == 0 {
		return invalid("balloonValue", "supplied but there are no balloons")
	}
	if t.Modality != InstallmentsPlusBalloons {
		return nil
	}
	if fixedI && fixedB {
		return invalid("installmentValue", "supply either the installment value or the balloon value, not both")
	}
	if !fixedI && !fixedB && t.MonthlyRatePercent == 0 && t.Installments > 0 && t.Balloons > 0 {
		return invalid("installmentValue", "at a zero rate supply the installment value or the balloon value")
	}
	return nil
}

func explicitMonths(months []int, installments int) ([]int, error) {
	sorted := append([]int(nil), months...)
	sort.Ints(sorted)
	for i, m := range sorted {
		if m < 1 || m > installments {
			return nil, invalid("balloonMonths", "month %d is outside 1..%d", m, installments)
		}
		if i > 0 && sorted[i-1] == m {
			return nil, invalid("balloonMonths", "month %d is listed twice", m)
		}
	}
	return sorted, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
