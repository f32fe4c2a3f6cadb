package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iwvelando/finance-schedule/internal/cache"
	"github.com/iwvelando/finance-schedule/internal/config"
	"github.com/iwvelando/finance-schedule/pkg/loans"
	"go.uber.org/zap"
)

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []byte) error {
	return errors.New("cache down")
}

func (failingCache) Close() error { return nil }

func testConfiguration() config.Configuration {
	rate := 1.0
	conf := config.Configuration{
		Simulations: []config.Simulation{
			{Name: "Car", Active: true, Price: 60000, DownPayment: 10000, Anchor: "2025-01-15", Installments: 48},
			{Name: "Skipped", Active: false, Principal: 1000, Installments: 12},
			{
				Name: "House", Active: true, Principal: 300000, MonthlyRate: &rate, Anchor: "2025-02-28",
				Modality: "mixed", BalloonCadence: "semiannual", Installments: 60,
			},
		},
	}
	conf.ApplyDefaults()
	return conf
}

func newTestRunner(c cache.Cache) *Runner {
	r := NewRunner(zap.NewNop(), c)
	r.now = func() time.Time { return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestRun(t *testing.T) {
	runner := newTestRunner(nil)
	results, err := runner.Run(context.Background(), testConfiguration())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, expected 2 active simulations", len(results))
	}
	if results[0].Name != "Car" || results[1].Name != "House" {
		t.Errorf("results out of order: %s, %s", results[0].Name, results[1].Name)
	}
	for _, result := range results {
		total, ok := result.Schedule.Total()
		if !ok {
			t.Errorf("%s has no Total row", result.Name)
			continue
		}
		if !total.PresentValue.Equal(result.Schedule.Terms.Principal) {
			t.Errorf("%s Total present value %s != principal %s", result.Name, total.PresentValue, result.Schedule.Terms.Principal)
		}
		if result.Cached {
			t.Errorf("%s should not be cached without a cache", result.Name)
		}
	}
}

func TestRunStopsAtFirstError(t *testing.T) {
	conf := testConfiguration()
	zero := 0.0
	conf.Simulations[2].MonthlyRate = &zero
	conf.Simulations[2].InstallmentValue = 100000

	results, err := newTestRunner(nil).Run(context.Background(), conf)
	if !errors.Is(err, loans.ErrOverSubscribed) {
		t.Fatalf("Run() error = %v, expected ErrOverSubscribed", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, expected the one computed before the failure", len(results))
	}
}

func TestScheduleMemoization(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemoryCache(time.Minute)
	runner := newTestRunner(memory)
	conf := testConfiguration()

	first, err := runner.RunSimulation(ctx, conf, conf.Simulations[2])
	if err != nil {
		t.Fatalf("RunSimulation() error = %v", err)
	}
	if first.Cached || memory.Len() != 1 {
		t.Fatalf("first run cached=%v, entries=%d; expected a stored miss", first.Cached, memory.Len())
	}

	second, err := runner.RunSimulation(ctx, conf, conf.Simulations[2])
	if err != nil {
		t.Fatalf("RunSimulation() error = %v", err)
	}
	if !second.Cached {
		t.Error("second run should be served from the cache")
	}
	if len(second.Schedule.Rows) != len(first.Schedule.Rows) {
		t.Fatalf("cached schedule has %d rows, expected %d", len(second.Schedule.Rows), len(first.Schedule.Rows))
	}
	for i := range first.Schedule.Rows {
		a, b := first.Schedule.Rows[i], second.Schedule.Rows[i]
		if a.Item != b.Item || a.Kind != b.Kind || !a.DueDate.Equal(b.DueDate) ||
			!a.Nominal.Equal(b.Nominal) || !a.PresentValue.Equal(b.PresentValue) {
			t.Errorf("row %d differs after the cache round trip: %+v vs %+v", i, a, b)
		}
	}
	if second.Schedule.Terms.Modality != loans.InstallmentsPlusBalloons {
		t.Errorf("cached schedule lost its terms: %+v", second.Schedule.Terms)
	}

	// A different day count is a different schedule.
	sim := conf.Simulations[2]
	sim.DayCount = "commercial"
	third, err := runner.RunSimulation(ctx, conf, sim)
	if err != nil {
		t.Fatalf("RunSimulation() error = %v", err)
	}
	if third.Cached {
		t.Error("changing the day count must miss the cache")
	}
}

func TestScheduleSurvivesCacheFailures(t *testing.T) {
	runner := newTestRunner(failingCache{})
	conf := testConfiguration()

	result, err := runner.RunSimulation(context.Background(), conf, conf.Simulations[0])
	if err != nil {
		t.Fatalf("RunSimulation() error = %v", err)
	}
	if result.Cached || result.Schedule == nil {
		t.Errorf("result = %+v, expected a freshly computed schedule", result)
	}
}

func TestScheduleIgnoresUnreadableEntries(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemoryCache(0)
	runner := newTestRunner(memory)
	conf := testConfiguration()

	terms, err := conf.Terms(conf.Simulations[0], runner.now())
	if err != nil {
		t.Fatalf("Terms() error = %v", err)
	}
	_ = memory.Set(ctx, cache.Key(terms), []byte("not json"))

	schedule, cached, err := runner.Schedule(ctx, terms)
	if err != nil || cached || schedule == nil {
		t.Errorf("Schedule() = %v, %v, %v; expected a recomputed schedule", schedule, cached, err)
	}
}

func BenchmarkScheduleCached(b *testing.B) {
	runner := NewRunner(zap.NewNop(), cache.NewMemoryCache(0))
	conf := testConfiguration()
	terms, err := conf.Terms(conf.Simulations[2], time.Now())
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := runner.Schedule(ctx, terms); err != nil {
			b.Fatal(err)
		}
	}
}
