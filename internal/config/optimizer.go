package config

import (
	"fmt"

	"github.com/iwvelando/finance-schedule/pkg/mathutil"
)

const (
	defaultMinInstallments = 1
	defaultMaxInstallments = 120
)

// OptimizerConfig defines the installment-count search: the shortest term
// whose solved installment fits within MaxInstallment.
type OptimizerConfig struct {
	// Simulation names the simulation whose terms are searched.
	Simulation      string  `yaml:"simulation,omitempty" mapstructure:"simulation"`
	MaxInstallment  float64 `yaml:"maxInstallment,omitempty" mapstructure:"maxInstallment"`
	MinInstallments int     `yaml:"minInstallments,omitempty" mapstructure:"minInstallments"`
	MaxInstallments int     `yaml:"maxInstallments,omitempty" mapstructure:"maxInstallments"`
}

// Normalize ensures defaults are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	if o.MinInstallments <= 0 {
		o.MinInstallments = defaultMinInstallments
	}
	if o.MaxInstallments <= 0 {
		o.MaxInstallments = defaultMaxInstallments
	}
}

// Validate returns an error when the optimizer configuration is unusable.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	if !mathutil.IsFinite(o.MaxInstallment) || o.MaxInstallment <= 0 {
		return fmt.Errorf("optimizer requires a positive maxInstallment, got %v", o.MaxInstallment)
	}
	if o.MinInstallments > o.MaxInstallments {
		return fmt.Errorf("optimizer minimum %d must not exceed maximum %d", o.MinInstallments, o.MaxInstallments)
	}
	return nil
}
