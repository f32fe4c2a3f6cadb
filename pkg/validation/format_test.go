package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	accepted := []string{"pretty", "csv"}
	for _, f := range accepted {
		if err := ValidateOutputFormat(f); err != nil {
			t.Errorf("ValidateOutputFormat(%q) unexpected error: %v", f, err)
		}
	}

	// Formats are matched exactly; callers normalise nothing.
	rejected := []string{"json", "", "PRETTY", " csv ", "xml"}
	for _, f := range rejected {
		if err := ValidateOutputFormat(f); err == nil {
			t.Errorf("ValidateOutputFormat(%q) expected error but got none", f)
		}
	}
}

func TestValidateCurrency(t *testing.T) {
	tests := []struct {
		code      string
		expectErr bool
	}{
		{"BRL", false},
		{"usd", false},
		{"EUR", false},
		{"", true},
		{"REAIS", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ValidateCurrency(tt.code)
			if (err != nil) != tt.expectErr {
				t.Errorf("ValidateCurrency(%q) error = %v, expectErr %v", tt.code, err, tt.expectErr)
			}
		})
	}
}
