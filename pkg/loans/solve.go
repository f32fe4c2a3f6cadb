package loans

import (
	"time"

	"github.com/iwvelando/finance-schedule/pkg/finance"
	"github.com/iwvelando/finance-schedule/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// solution holds the level value of each flow kind and the kind whose
// earliest row absorbs the reconciliation residual.
type solution struct {
	installment       decimal.Decimal
	balloon           decimal.Decimal
	installmentFactor float64
	balloonFactor     float64
	designated        FlowKind
}

// solveValues inverts the price factors of each due-date set into level
// payment values. At a zero rate a factor is the flow count, so the same
// inversion is an even split.
func solveValues(t FinancingTerms, rates finance.Rates, installmentDates, balloonDates []time.Time) (solution, error) {
	s := solution{
		installmentFactor: finance.PriceFactor(installmentDates, t.Anchor, rates.Daily, t.DayCount),
		balloonFactor:     finance.PriceFactor(balloonDates, t.Anchor, rates.Daily, t.DayCount),
	}

	switch t.Modality {
	case InstallmentsOnly:
		s.designated = Installment
		s.installment = finance.LevelPayment(t.Principal, s.installmentFactor)
		return s, nil
	case BalloonsOnlyAnnual, BalloonsOnlySemiannual:
		s.designated = Balloon
		s.balloon = finance.LevelPayment(t.Principal, s.balloonFactor)
		return s, nil
	}

	switch {
	case !t.FixedInstallment.IsZero():
		s.installment = t.FixedInstallment
		s.designated = Balloon
		value, err := solveRemainder(t.Principal, Installment, t.FixedInstallment, s.installmentFactor, s.balloonFactor, rates.IsZero())
		if err != nil {
			return s, err
		}
		s.balloon = value
	case !t.FixedBalloon.IsZero():
		s.balloon = t.FixedBalloon
		s.designated = Installment
		value, err := solveRemainder(t.Principal, Balloon, t.FixedBalloon, s.balloonFactor, s.installmentFactor, rates.IsZero())
		if err != nil {
			return s, err
		}
		s.installment = value
	default:
		// One level value funds every flow.
		unit := finance.LevelPayment(t.Principal, s.installmentFactor+s.balloonFactor)
		s.installment, s.balloon = unit, unit
		s.designated = Installment
		if len(installmentDates) == 0 {
			s.designated = Balloon
		}
	}
	return s, nil
}

// solveRemainder funds what the fixed side leaves of the principal with level
// payments on the solved side. A solved side without flows has a zero factor
// and gets zero; reconciliation then reports the unallocated share.
//
// At a zero rate a fixed side worth more than the principal is an
// OverSubscriptionError. At a positive rate the share is clamped to zero and
// the excess surfaces as a reconciliation warning.
func solveRemainder(principal decimal.Decimal, fixedKind FlowKind, fixed decimal.Decimal, fixedFactor, solvedFactor float64, zeroRate bool) (decimal.Decimal, error) {
	committed := mathutil.RoundCents(fixed.Mul(decimal.NewFromFloat(fixedFactor)))
	share := principal.Sub(committed)
	if !share.IsNegative() {
		return finance.LevelPayment(share, solvedFactor), nil
	}
	if zeroRate {
		return decimal.Zero, &OverSubscriptionError{Kind: fixedKind, Committed: committed, Principal: principal}
	}
	return decimal.Zero, nil
}
