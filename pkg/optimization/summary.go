// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of an installment-count search.
type Summary struct {
	Simulation string `json:"simulation"`
	Field      string `json:"field"`
	// Original is the installment count configured on the simulation.
	Original int `json:"original"`
	// Value is the smallest count found within budget, or the best
	// candidate when none fits.
	Value       int      `json:"value"`
	MinValue    int      `json:"minValue"`
	MaxValue    int      `json:"maxValue"`
	Budget      float64  `json:"budget"`
	Installment float64  `json:"installment"`
	MonthlyRate float64  `json:"monthlyRate"`
	Headroom    float64  `json:"headroom"`
	Iterations  int      `json:"iterations"`
	Converged   bool     `json:"converged"`
	Notes       []string `json:"notes,omitempty"`

	BudgetDisplay      string `json:"budgetDisplay,omitempty"`
	InstallmentDisplay string `json:"installmentDisplay,omitempty"`
}
