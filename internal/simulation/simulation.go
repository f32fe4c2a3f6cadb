// Package simulation runs the configured simulations through the schedule
// engine, memoizing results and recording spans and metrics.
package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwvelando/finance-schedule/internal/cache"
	"github.com/iwvelando/finance-schedule/internal/config"
	"github.com/iwvelando/finance-schedule/internal/metrics"
	"github.com/iwvelando/finance-schedule/internal/tracing"
	"github.com/iwvelando/finance-schedule/pkg/loans"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Result holds the schedule computed for one simulation.
type Result struct {
	Name     string          `json:"name"`
	Schedule *loans.Schedule `json:"schedule"`
	Cached   bool            `json:"cached"`
}

// cachedSchedule is the memoized payload; Schedule does not serialize its
// terms.
type cachedSchedule struct {
	Schedule *loans.Schedule      `json:"schedule"`
	Terms    loans.FinancingTerms `json:"terms"`
}

// Runner computes schedules through a shared cache.
type Runner struct {
	logger    *zap.Logger
	generator *loans.ScheduleGenerator
	cache     cache.Cache
	tracer    trace.Tracer
	now       func() time.Time
}

// NewRunner creates a runner. A nil cache disables memoization.
func NewRunner(logger *zap.Logger, c cache.Cache) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Runner{
		logger:    logger,
		generator: loans.NewScheduleGenerator(logger),
		cache:     c,
		tracer:    tracing.Tracer(),
		now:       time.Now,
	}
}

// Schedule returns the schedule for terms, from the cache when possible. The
// boolean reports a cache hit. Cache failures are logged and never fail the
// computation.
func (r *Runner) Schedule(ctx context.Context, terms loans.FinancingTerms) (*loans.Schedule, bool, error) {
	ctx, span := r.tracer.Start(ctx, "simulation.Schedule",
		trace.WithAttributes(
			attribute.String("modality", terms.Modality.String()),
			attribute.Int("installments", terms.Installments),
			attribute.String("dayCount", terms.DayCount.String()),
		),
	)
	defer span.End()

	key := cache.Key(terms)
	if schedule, ok := r.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cached", true))
		return schedule, true, nil
	}

	start := time.Now()
	schedule, err := r.generator.Generate(terms)
	metrics.GenerationSeconds.Observe(time.Since(start).Seconds())
	metrics.SchedulesGenerated.WithLabelValues(terms.Modality.String(), metrics.StatusFor(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if len(schedule.Warnings) > 0 {
		metrics.DegenerateWarnings.Add(float64(len(schedule.Warnings)))
	}

	r.store(ctx, key, schedule)
	span.SetAttributes(attribute.Bool("cached", false), attribute.Int("rows", len(schedule.Rows)))
	return schedule, false, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (*loans.Schedule, bool) {
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		r.logger.Warn("schedule cache lookup failed",
			zap.String("op", "simulation.lookup"),
			zap.Error(err),
		)
		return nil, false
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var payload cachedSchedule
	if err := json.Unmarshal(data, &payload); err != nil || payload.Schedule == nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		r.logger.Warn("discarding unreadable cache entry",
			zap.String("op", "simulation.lookup"),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	payload.Schedule.Terms = payload.Terms
	return payload.Schedule, true
}

func (r *Runner) store(ctx context.Context, key string, schedule *loans.Schedule) {
	data, err := json.Marshal(cachedSchedule{Schedule: schedule, Terms: schedule.Terms})
	if err == nil {
		err = r.cache.Set(ctx, key, data)
	}
	if err != nil {
		r.logger.Warn("failed to cache schedule",
			zap.String("op", "simulation.store"),
			zap.Error(err),
		)
	}
}

// Run computes every active simulation of conf, in order.
func (r *Runner) Run(ctx context.Context, conf config.Configuration) ([]Result, error) {
	ctx, span := r.tracer.Start(ctx, "simulation.Run")
	defer span.End()

	var results []Result
	for _, sim := range conf.Simulations {
		if !sim.Active {
			r.logger.Debug(fmt.Sprintf("skipping simulation %s because it is inactive", sim.Name),
				zap.String("op", "simulation.Run"),
			)
			continue
		}

		result, err := r.RunSimulation(ctx, conf, sim)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// RunSimulation converts one simulation with the configuration's defaults and
// computes its schedule.
func (r *Runner) RunSimulation(ctx context.Context, conf config.Configuration, sim config.Simulation) (Result, error) {
	terms, err := conf.Terms(sim, r.now())
	if err != nil {
		return Result{}, err
	}

	schedule, cached, err := r.Schedule(ctx, terms)
	if err != nil {
		return Result{}, fmt.Errorf("simulation %q: %w", sim.Name, err)
	}
	for _, warning := range schedule.Warnings {
		r.logger.Warn(fmt.Sprintf("simulation %s: %s", sim.Name, warning),
			zap.String("op", "simulation.RunSimulation"),
		)
	}
	return Result{Name: sim.Name, Schedule: schedule, Cached: cached}, nil
}
