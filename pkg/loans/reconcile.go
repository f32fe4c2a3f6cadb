package loans

import (
	"fmt"

	"github.com/iwvelando/finance-schedule/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ResidualReconciler closes the gap left by per-row cent rounding so that the
// present values of a schedule sum exactly to its principal.
type ResidualReconciler struct {
	logger *zap.Logger
}

// NewResidualReconciler creates a reconciler that logs through logger.
func NewResidualReconciler(logger *zap.Logger) *ResidualReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResidualReconciler{logger: logger}
}

// Reconcile moves principal minus the sum of present values onto the earliest
// row of the designated kind, adjusting its nominal by the same amount. Rows
// must already be in schedule order. When no row of that kind exists, or the
// residual would drive its nominal negative, the residual is left in place and
// reported as a warning.
func (r *ResidualReconciler) Reconcile(rows []CashFlowRow, principal decimal.Decimal, designated FlowKind) (decimal.Decimal, []DegenerateWarning) {
	sum := decimal.Zero
	target := -1
	for i, row := range rows {
		if row.IsTotal() {
			continue
		}
		sum = sum.Add(row.PresentValue)
		if target < 0 && row.Kind == designated {
			target = i
		}
	}
	residual := mathutil.RoundCents(principal.Sub(sum))
	if residual.IsZero() {
		return residual, nil
	}

	if target < 0 {
		return residual, r.unallocated(designated, residual,
			fmt.Sprintf("no %s rows to absorb the remaining principal", designated))
	}

	row := &rows[target]
	nominal := row.Nominal.Add(residual)
	if nominal.IsNegative() {
		return residual, r.unallocated(designated, residual,
			fmt.Sprintf("payments are worth %s more than the principal and %s rows cannot absorb it",
				residual.Neg().StringFixed(2), designated))
	}
	row.Nominal = nominal
	row.PresentValue = row.PresentValue.Add(residual)
	row.Discount = row.Nominal.Sub(row.PresentValue)

	r.logger.Debug(fmt.Sprintf("moved residual %s onto %s", residual.StringFixed(2), row.Item),
		zap.String("op", "loans.Reconcile"),
	)
	return residual, nil
}

func (r *ResidualReconciler) unallocated(kind FlowKind, residual decimal.Decimal, message string) []DegenerateWarning {
	r.logger.Warn(message,
		zap.String("op", "loans.Reconcile"),
		zap.String("residual", residual.StringFixed(2)),
	)
	return []DegenerateWarning{{Kind: kind, Residual: residual, Message: message}}
}
