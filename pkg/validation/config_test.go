package validation

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestValidateBalloonSettings(t *testing.T) {
	tests := []struct {
		name     string
		sim      SimulationInfo
		expected int
	}{
		{
			name:     "Explicit months under the explicit policy",
			sim:      SimulationInfo{Name: "a", BalloonPolicy: "months", BalloonMonths: []int{12}},
			expected: 0,
		},
		{
			name:     "Months listed under the standard policy",
			sim:      SimulationInfo{Name: "b", BalloonPolicy: "standard", BalloonMonths: []int{12}},
			expected: 1,
		},
		{
			name:     "First balloon month under the explicit policy",
			sim:      SimulationInfo{Name: "c", BalloonPolicy: "months", BalloonMonths: []int{6}, FirstBalloonMonth: 3},
			expected: 1,
		},
		{
			name:     "Both ignored",
			sim:      SimulationInfo{Name: "d", BalloonPolicy: "standard", BalloonMonths: []int{6}, FirstBalloonMonth: 3},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := ValidateBalloonSettings(tt.sim)
			if len(warnings) != tt.expected {
				t.Errorf("ValidateBalloonSettings() returned %d warnings, expected %d: %v", len(warnings), tt.expected, warnings)
			}
		})
	}
}

func TestValidateRateOverride(t *testing.T) {
	tests := []struct {
		name        string
		sim         SimulationInfo
		wantWarning bool
	}{
		{"Table rate only", SimulationInfo{Name: "a", TableRate: floatPtr(0.79)}, false},
		{"Explicit rate without a tier", SimulationInfo{Name: "b", MonthlyRate: floatPtr(1.2)}, false},
		{"Explicit rate matches tier", SimulationInfo{Name: "c", MonthlyRate: floatPtr(0.79), TableRate: floatPtr(0.79)}, false},
		{"Explicit rate overrides tier", SimulationInfo{Name: "d", Installments: 60, MonthlyRate: floatPtr(1.1), TableRate: floatPtr(0.79)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateRateOverride(tt.sim)
			if (warning != "") != tt.wantWarning {
				t.Errorf("ValidateRateOverride() = %q, wantWarning %v", warning, tt.wantWarning)
			}
		})
	}
}

func TestConfigValidator_ValidateAll(t *testing.T) {
	cv := ConfigValidator{
		Simulations: []SimulationInfo{
			{Name: "Car", BalloonPolicy: "standard"},
			{Name: "Car", BalloonPolicy: "standard", BalloonMonths: []int{12}},
			{Name: "House", Installments: 60, MonthlyRate: floatPtr(1.0), TableRate: floatPtr(0.79)},
		},
	}

	warnings := cv.ValidateAll()
	if len(warnings) != 3 {
		t.Fatalf("ValidateAll() returned %d warnings, expected 3: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "used more than once") {
		t.Errorf("first warning = %q, expected the duplicate name", warnings[0])
	}
}
