package loans

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/finance-schedule/pkg/datetime"
	"github.com/iwvelando/finance-schedule/pkg/finance"
	"github.com/iwvelando/finance-schedule/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CashFlowRow is one line of a schedule. The Total row has no due date and
// no elapsed period.
type CashFlowRow struct {
	Item         string          `json:"item"`
	Kind         FlowKind        `json:"kind"`
	DueDate      time.Time       `json:"dueDate"`
	Elapsed      int             `json:"elapsed"`
	Nominal      decimal.Decimal `json:"nominal"`
	PresentValue decimal.Decimal `json:"presentValue"`
	Discount     decimal.Decimal `json:"discount"`
}

// IsTotal reports whether the row is the summary row.
func (r CashFlowRow) IsTotal() bool {
	return r.Kind == Total
}

// Schedule is the ordered result of one computation, terminated by exactly one
// Total row unless it has no flows at all.
type Schedule struct {
	Rows  []CashFlowRow  `json:"rows"`
	Rates finance.Rates  `json:"rates"`
	Terms FinancingTerms `json:"-"`
	// InstallmentValue and BalloonValue are the level values before
	// reconciliation.
	InstallmentValue decimal.Decimal `json:"installmentValue"`
	BalloonValue     decimal.Decimal `json:"balloonValue"`
	// Residual is principal minus the priced flows, moved onto one row or
	// reported in Warnings.
	Residual decimal.Decimal     `json:"residual"`
	Warnings []DegenerateWarning `json:"warnings,omitempty"`
}

// Flows returns the non-Total rows.
func (s *Schedule) Flows() []CashFlowRow {
	if n := len(s.Rows); n > 0 && s.Rows[n-1].IsTotal() {
		return s.Rows[:n-1]
	}
	return s.Rows
}

// Total returns the summary row, if any.
func (s *Schedule) Total() (CashFlowRow, bool) {
	if n := len(s.Rows); n > 0 && s.Rows[n-1].IsTotal() {
		return s.Rows[n-1], true
	}
	return CashFlowRow{}, false
}

// ScheduleGenerator builds payment schedules.
type ScheduleGenerator struct {
	logger *zap.Logger
}

// NewScheduleGenerator creates a new generator instance
func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{logger: logger}
}

// Generate computes the schedule for the given terms. Validation and
// oversubscription failures are returned as *ValidationError and
// *OverSubscriptionError.
func (g *ScheduleGenerator) Generate(terms FinancingTerms) (*Schedule, error) {
	norm, err := terms.normalize()
	if err != nil {
		return nil, err
	}

	rates, err := finance.ConvertMonthlyRate(norm.MonthlyRatePercent, norm.DayCount)
	if err != nil {
		return nil, invalid("monthlyRate", "%v", err)
	}

	installmentDates, balloonDates := dueDates(norm)
	schedule := &Schedule{Rates: rates, Terms: norm}

	if len(installmentDates) == 0 && len(balloonDates) == 0 {
		warning := DegenerateWarning{
			Residual: norm.Principal,
			Message:  "terms produce no cash flows",
		}
		g.logger.Warn(warning.Message,
			zap.String("op", "loans.Generate"),
			zap.String("modality", norm.Modality.String()),
		)
		schedule.Warnings = append(schedule.Warnings, warning)
		return schedule, nil
	}

	solved, err := solveValues(norm, rates, installmentDates, balloonDates)
	if err != nil {
		return nil, err
	}
	g.logger.Debug(fmt.Sprintf("solved installment %s and balloon %s for %s",
		solved.installment.StringFixed(2), solved.balloon.StringFixed(2), norm.Modality),
		zap.String("op", "loans.Generate"),
		zap.Float64("installmentFactor", solved.installmentFactor),
		zap.Float64("balloonFactor", solved.balloonFactor),
	)
	schedule.InstallmentValue = solved.installment
	schedule.BalloonValue = solved.balloon

	rows := append(
		priceRows(Installment, installmentDates, solved.installment, norm, rates),
		priceRows(Balloon, balloonDates, solved.balloon, norm, rates)...,
	)
	orderRows(rows)

	reconciler := NewResidualReconciler(g.logger)
	residual, warnings := reconciler.Reconcile(rows, norm.Principal, solved.designated)
	schedule.Residual = residual
	schedule.Warnings = append(schedule.Warnings, warnings...)

	schedule.Rows = append(rows, totalRow(rows, norm.Principal))
	return schedule, nil
}

// dueDates generates the due dates of each flow kind, ascending.
func dueDates(t FinancingTerms) (installments, balloons []time.Time) {
	day := t.Anchor.Day()
	if t.Modality.HasInstallments() {
		installments = datetime.Series(t.Anchor, datetime.Monthly, 1, t.Installments, day)
	}

	switch {
	case !t.Modality.HasBalloons() || t.Balloons == 0:
	case t.Modality != InstallmentsPlusBalloons:
		balloons = datetime.Series(t.Anchor, t.balloonPeriod(), 1, t.Balloons, day)
	case t.BalloonPolicy == AnchoredToFirstDueMonth:
		// Each later balloon is anchored on the previous one, day included.
		next := datetime.Advance(t.Anchor, datetime.Monthly, t.FirstBalloonMonth, day)
		for j := 0; j < t.Balloons; j++ {
			balloons = append(balloons, next)
			next = datetime.Advance(next, t.balloonPeriod(), 1, 0)
		}
	case t.BalloonPolicy == ExplicitMonthList:
		for _, month := range t.BalloonMonths {
			balloons = append(balloons, datetime.Advance(t.Anchor, datetime.Monthly, month, day))
		}
	default:
		interval := t.balloonPeriod().Months()
		for j := 1; j <= t.Balloons; j++ {
			balloons = append(balloons, datetime.Advance(t.Anchor, datetime.Monthly, j*interval, day))
		}
	}
	return installments, balloons
}

// priceRows discounts one row per due date at the given unit value.
func priceRows(kind FlowKind, dates []time.Time, unit decimal.Decimal, t FinancingTerms, rates finance.Rates) []CashFlowRow {
	rows := make([]CashFlowRow, 0, len(dates))
	for i, due := range dates {
		elapsed := t.DayCount.Elapsed(t.Anchor, due)
		pv := finance.PresentValue(unit, rates.Daily, elapsed)
		rows = append(rows, CashFlowRow{
			Item:         fmt.Sprintf("%s %d", kind, i+1),
			Kind:         kind,
			DueDate:      due,
			Elapsed:      elapsed,
			Nominal:      unit,
			PresentValue: pv,
			Discount:     unit.Sub(pv),
		})
	}
	return rows
}

// orderRows sorts chronologically, installments before balloons on the same
// date.
func orderRows(rows []CashFlowRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].DueDate.Equal(rows[j].DueDate) {
			return rows[i].DueDate.Before(rows[j].DueDate)
		}
		return rows[i].Kind < rows[j].Kind
	})
}

func totalRow(rows []CashFlowRow, principal decimal.Decimal) CashFlowRow {
	nominal := decimal.Zero
	for _, r := range rows {
		nominal = nominal.Add(r.Nominal)
	}
	nominal = mathutil.RoundCents(nominal)
	return CashFlowRow{
		Item:         "TOTAL",
		Kind:         Total,
		Nominal:      nominal,
		PresentValue: principal,
		Discount:     nominal.Sub(principal),
	}
}
