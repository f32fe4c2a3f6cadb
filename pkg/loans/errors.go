package loans

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTerms is matched by every ValidationError.
	ErrInvalidTerms = errors.New("invalid financing terms")
	// ErrOverSubscribed is matched by every OverSubscriptionError.
	ErrOverSubscribed = errors.New("fixed payments exceed the financed principal")
)

// ValidationError reports out-of-range or contradictory financing terms.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidTerms, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTerms
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// OverSubscriptionError reports caller-fixed payments whose total exceeds the
// financed principal at a zero rate, which would leave the solved side
// negative.
type OverSubscriptionError struct {
	// Kind is the flow kind carrying the fixed value.
	Kind      FlowKind
	Committed decimal.Decimal
	Principal decimal.Decimal
}

func (e *OverSubscriptionError) Error() string {
	return fmt.Sprintf("%v: %s payments are worth %s against a principal of %s",
		ErrOverSubscribed, e.Kind, e.Committed.StringFixed(2), e.Principal.StringFixed(2))
}

func (e *OverSubscriptionError) Unwrap() error {
	return ErrOverSubscribed
}

// DegenerateWarning is a non-fatal condition: part of the principal could not
// be allocated, either because the side that should absorb it has no flows or
// because fixed payments already exceed it. Residual is principal minus the
// priced flows, negative for an excess, and stays visible in the Total row's
// discount.
type DegenerateWarning struct {
	Kind     FlowKind        `json:"kind,omitempty"`
	Residual decimal.Decimal `json:"residual"`
	Message  string          `json:"message"`
}

func (w DegenerateWarning) String() string {
	return fmt.Sprintf("%s (unallocated %s)", w.Message, w.Residual.StringFixed(2))
}
