// Package optimizer searches installment counts for the shortest financing
// whose level installment fits a budget.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/finance-schedule/internal/config"
	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/pkg/format"
	"github.com/iwvelando/finance-schedule/pkg/loans"
	"github.com/iwvelando/finance-schedule/pkg/mathutil"
	"github.com/iwvelando/finance-schedule/pkg/optimization"
	"go.uber.org/zap"
)

// FieldInstallments is the only field the optimizer adjusts.
const FieldInstallments = "installments"

const budgetTolerance = 1e-9

type Runner struct {
	logger    *zap.Logger
	conf      *config.Configuration
	schedules *simulation.Runner
	fixedTime time.Time
}

type evaluation struct {
	count       int
	installment float64
	rate        float64
	err         error
}

func (e evaluation) feasible(budget float64) bool {
	return e.err == nil && e.installment <= budget+budgetTolerance
}

func (e evaluation) headroom(budget float64) float64 {
	return budget - e.installment
}

// segment is a run of installment counts sharing one monthly rate, where the
// installment falls as the count grows.
type segment struct {
	lo, hi int
}

// Result pairs the search summary with the schedule at the chosen count.
type Result struct {
	Summary  optimization.Summary `json:"summary"`
	Schedule *loans.Schedule      `json:"schedule,omitempty"`
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration, schedules *simulation.Runner) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedules == nil {
		schedules = simulation.NewRunner(logger, nil)
	}
	return &Runner{logger: logger, conf: conf, schedules: schedules, fixedTime: time.Now()}, nil
}

// Run executes the configured search. The simulation's installment count is
// left untouched in the configuration.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	opt := r.conf.Optimizer
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	sim, ok := r.conf.FindSimulation(opt.Simulation)
	if !ok {
		return nil, fmt.Errorf("optimizer: simulation %q not found", opt.Simulation)
	}
	modality, err := loans.ParseModality(defaultModality(sim.Modality))
	if err != nil {
		return nil, fmt.Errorf("optimizer: simulation %q: %w", sim.Name, err)
	}
	if !modality.HasInstallments() {
		return nil, fmt.Errorf("optimizer: simulation %q has no installments to size", sim.Name)
	}
	if sim.InstallmentValue != 0 {
		return nil, fmt.Errorf("optimizer: simulation %q fixes the installment value", sim.Name)
	}

	summary := optimization.Summary{
		Simulation:    sim.Name,
		Field:         FieldInstallments,
		Original:      sim.Installments,
		MinValue:      opt.MinInstallments,
		MaxValue:      opt.MaxInstallments,
		Budget:        opt.MaxInstallment,
		BudgetDisplay: format.Currency(mathutil.Cents(opt.MaxInstallment), r.conf.Output.Currency),
	}

	evaluate := func(n int) evaluation {
		summary.Iterations++
		return r.evaluate(ctx, sim, n)
	}

	best, found := r.search(r.segments(sim, opt.MinInstallments, opt.MaxInstallments), opt.MaxInstallment, evaluate)
	if best.err != nil && !isTermsError(best.err) {
		return nil, best.err
	}

	summary.Value = best.count
	summary.Installment = best.installment
	summary.MonthlyRate = best.rate
	summary.Headroom = mathutil.Round(best.headroom(opt.MaxInstallment))
	summary.Converged = found
	summary.InstallmentDisplay = format.Currency(mathutil.Cents(best.installment), r.conf.Output.Currency)
	if !found {
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"no installment count between %d and %d keeps the installment within %s",
			opt.MinInstallments, opt.MaxInstallments, summary.BudgetDisplay))
	}
	if best.err != nil {
		summary.Notes = append(summary.Notes, best.err.Error())
	}

	r.logger.Info("optimizer sized installment count",
		zap.String("op", "optimizer.Run"),
		zap.String("simulation", sim.Name),
		zap.Int("original", summary.Original),
		zap.Int("value", summary.Value),
		zap.Float64("installment", summary.Installment),
		zap.Float64("budget", summary.Budget),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)

	result := &Result{Summary: summary}
	if best.err == nil {
		sim.Installments = best.count
		run, err := r.schedules.RunSimulation(ctx, *r.conf, sim)
		if err != nil {
			return nil, err
		}
		result.Schedule = run.Schedule
	}
	return result, nil
}

// search returns the smallest feasible count, scanning rate segments in
// ascending order and bisecting inside the first one whose longest term fits.
// Without a feasible count it returns the evaluated candidate with the lowest
// installment.
func (r *Runner) search(segments []segment, budget float64, evaluate func(int) evaluation) (evaluation, bool) {
	var best evaluation
	haveBest := false
	consider := func(e evaluation) {
		if !haveBest || (e.err == nil && (best.err != nil || e.installment < best.installment)) {
			best = e
			haveBest = true
		}
	}

	for _, seg := range segments {
		upper := evaluate(seg.hi)
		consider(upper)
		if !upper.feasible(budget) {
			continue
		}

		lower := evaluate(seg.lo)
		if lower.feasible(budget) {
			return lower, true
		}

		// Invariant: lo is infeasible, hi is feasible.
		lo, hi := seg.lo, upper
		for hi.count-lo > 1 {
			mid := lo + (hi.count-lo)/2
			e := evaluate(mid)
			if e.feasible(budget) {
				hi = e
			} else {
				lo = mid
			}
		}
		return hi, true
	}
	return best, false
}

// segments splits [lo, hi] wherever the rate table changes rate. A simulation
// with its own rate is one segment.
func (r *Runner) segments(sim config.Simulation, lo, hi int) []segment {
	if sim.MonthlyRate != nil {
		return []segment{{lo: lo, hi: hi}}
	}
	var segs []segment
	start := lo
	prevRate, prevOK := r.conf.RateTable.RateFor(lo)
	for n := lo + 1; n <= hi; n++ {
		rate, ok := r.conf.RateTable.RateFor(n)
		if ok != prevOK || rate != prevRate {
			segs = append(segs, segment{lo: start, hi: n - 1})
			start = n
			prevRate, prevOK = rate, ok
		}
	}
	return append(segs, segment{lo: start, hi: hi})
}

func (r *Runner) evaluate(ctx context.Context, sim config.Simulation, n int) evaluation {
	sim.Installments = n
	terms, err := r.conf.Terms(sim, r.fixedTime)
	if err != nil {
		return evaluation{count: n, err: err}
	}
	schedule, _, err := r.schedules.Schedule(ctx, terms)
	if err != nil {
		return evaluation{count: n, rate: terms.MonthlyRatePercent, err: err}
	}
	r.logger.Debug(fmt.Sprintf("%d installments of %s", n, schedule.InstallmentValue.StringFixed(2)),
		zap.String("op", "optimizer.evaluate"),
		zap.String("simulation", sim.Name),
	)
	return evaluation{
		count:       n,
		installment: schedule.InstallmentValue.InexactFloat64(),
		rate:        terms.MonthlyRatePercent,
	}
}

func isTermsError(err error) bool {
	return errors.Is(err, loans.ErrInvalidTerms) || errors.Is(err, loans.ErrOverSubscribed)
}

func defaultModality(value string) string {
	if value == "" {
		return loans.InstallmentsOnly.String()
	}
	return value
}
