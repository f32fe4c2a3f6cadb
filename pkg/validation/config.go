// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/finance-schedule/pkg/mathutil"
)

// SimulationInfo is the part of a configured simulation that can be checked
// for settings which parse cleanly but have no effect.
type SimulationInfo struct {
	Name              string
	Modality          string
	BalloonPolicy     string
	Installments      int
	FirstBalloonMonth int
	BalloonMonths     []int
	// MonthlyRate is nil when the simulation takes its rate from the table.
	MonthlyRate *float64
	// TableRate is the rate table's rate for Installments, nil without a
	// matching tier.
	TableRate *float64
}

// ConfigValidator collects warnings over every configured simulation.
type ConfigValidator struct {
	Simulations []SimulationInfo
}

// ValidateBalloonSettings warns about balloon settings the chosen policy
// ignores.
func ValidateBalloonSettings(sim SimulationInfo) []string {
	var warnings []string
	if len(sim.BalloonMonths) > 0 && sim.BalloonPolicy != "months" {
		warnings = append(warnings, fmt.Sprintf("Simulation '%s' lists balloon months but uses the %s policy; the list is ignored",
			sim.Name, sim.BalloonPolicy))
	}
	if sim.FirstBalloonMonth != 0 && sim.BalloonPolicy != "first-due-month" {
		warnings = append(warnings, fmt.Sprintf("Simulation '%s' sets firstBalloonMonth but uses the %s policy; it is ignored",
			sim.Name, sim.BalloonPolicy))
	}
	return warnings
}

// ValidateRateOverride warns when an explicit rate departs from the rate
// table's tier for the same term.
func ValidateRateOverride(sim SimulationInfo) string {
	if sim.MonthlyRate == nil || sim.TableRate == nil {
		return ""
	}
	if mathutil.WithinTolerance(*sim.MonthlyRate, *sim.TableRate, 1e-9) {
		return ""
	}
	return fmt.Sprintf("Simulation '%s' overrides the table rate for %d installments (%.4f%% instead of %.4f%%)",
		sim.Name, sim.Installments, *sim.MonthlyRate, *sim.TableRate)
}

// ValidateAll validates every simulation and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string
	seen := make(map[string]bool)

	for _, sim := range cv.Simulations {
		if seen[sim.Name] {
			warnings = append(warnings, fmt.Sprintf("Simulation name '%s' is used more than once", sim.Name))
		}
		seen[sim.Name] = true

		warnings = append(warnings, ValidateBalloonSettings(sim)...)
		if warning := ValidateRateOverride(sim); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	return warnings
}
