package mathutil

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Large number", 12345.678, 12345.68},
		{"Negative number round down", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
		{"Very small negative", -0.001, 0.00},
		{"Exactly one cent", 0.01, 0.01},
		{"Nearly two cents", 0.019, 0.02},
		{"Large negative", -12345.678, -12345.68},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		val1      float64
		val2      float64
		tolerance float64
		expected  bool
	}{
		{"Exactly equal", 1.0, 1.0, 0.1, true},
		{"Within tolerance", 1.0, 1.05, 0.1, true},
		{"Outside tolerance", 1.0, 1.15, 0.1, false},
		{"Zero tolerance exact match", 1.0, 1.0, 0.0, true},
		{"Zero tolerance no match", 1.0, 1.001, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WithinTolerance(tt.val1, tt.val2, tt.tolerance)
			if result != tt.expected {
				t.Errorf("WithinTolerance(%v, %v, %v) = %v, expected %v",
					tt.val1, tt.val2, tt.tolerance, result, tt.expected)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(1.5) {
		t.Error("expected 1.5 to be finite")
	}
	if IsFinite(math.NaN()) {
		t.Error("expected NaN to be reported as not finite")
	}
	if IsFinite(math.Inf(-1)) {
		t.Error("expected -Inf to be reported as not finite")
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"Whole amount", 10000, "10000"},
		{"Rounds half away from zero", 0.125, "0.13"},
		{"Drops sub-cent noise", 9090.909090909, "9090.91"},
		{"Negative", -33.333, "-33.33"},
		{"NaN becomes zero", math.NaN(), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Cents(tt.input)
			if !result.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("Cents(%v) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundCents(t *testing.T) {
	got := RoundCents(decimal.RequireFromString("1234.5678"))
	if !got.Equal(decimal.RequireFromString("1234.57")) {
		t.Errorf("RoundCents = %s, expected 1234.57", got)
	}
	got = RoundCents(decimal.RequireFromString("-0.005"))
	if !got.Equal(decimal.RequireFromString("-0.01")) {
		t.Errorf("RoundCents = %s, expected -0.01", got)
	}
}
