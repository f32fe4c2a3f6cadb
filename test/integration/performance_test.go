package integration

import (
	"context"
	"testing"
	"time"

	"github.com/iwvelando/finance-schedule/internal/config"
	"github.com/iwvelando/finance-schedule/internal/optimizer"
	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/pkg/testutil"
	"go.uber.org/zap"
)

// TestPerformance tests performance characteristics
func TestPerformance(t *testing.T) {
	start := time.Now()
	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	loadTime := time.Since(start)

	start = time.Now()
	results, err := simulation.NewRunner(zap.NewNop(), nil).Run(context.Background(), *conf)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	runTime := time.Since(start)

	t.Logf("Performance metrics:")
	t.Logf("  Load config: %v", loadTime)
	t.Logf("  Compute schedules: %v", runTime)

	if total := loadTime + runTime; total > 10*time.Second {
		t.Errorf("Total processing time %v exceeds 10 second threshold", total)
	}
	if len(results) != len(expectedSimulations) {
		t.Errorf("Expected %d results, got %d", len(expectedSimulations), len(results))
	}
}

func TestLongSchedules(t *testing.T) {
	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	runner := simulation.NewRunner(zap.NewNop(), nil)

	for _, modality := range []string{"installments", "installments+balloons", "balloons-semiannual"} {
		sim := config.Simulation{
			Name:         "long " + modality,
			Principal:    1500000,
			Anchor:       "2025-01-31",
			Modality:     modality,
			Installments: 420,
		}
		result, err := runner.RunSimulation(context.Background(), *conf, sim)
		if err != nil {
			t.Fatalf("%s: RunSimulation failed: %v", modality, err)
		}
		testutil.AssertScheduleInvariants(t, sim.Name, result.Schedule)
	}
}

func TestOptimizerOnTestConfiguration(t *testing.T) {
	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}
	runner, err := optimizer.NewRunner(zap.NewNop(), conf, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 48000 over the interest-free tier needs 32 installments of 1500.
	if result.Summary.Value != 32 || !result.Summary.Converged {
		t.Fatalf("expected 32 installments within budget, got %+v", result.Summary)
	}
	testutil.AssertScheduleInvariants(t, "optimized car", result.Schedule)
}

// TestMemoryUsage runs the pipeline repeatedly to surface leaks or state
// carried between runs.
func TestMemoryUsage(t *testing.T) {
	var previous string
	for i := 0; i < 10; i++ {
		_, results := loadAndRun(t)
		current := results[1].Schedule.Rows[len(results[1].Schedule.Rows)-1].Nominal.String()
		if i > 0 && current != previous {
			t.Fatalf("iteration %d produced total %s, previous %s", i, current, previous)
		}
		previous = current
	}
}

func BenchmarkRunConfiguration(b *testing.B) {
	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		b.Fatalf("LoadConfiguration failed: %v", err)
	}
	runner := simulation.NewRunner(zap.NewNop(), nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := runner.Run(ctx, *conf); err != nil {
			b.Fatal(err)
		}
	}
}
