package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

// Re-export the taxonomy so callers can depend on core.* without importing
// model for error classification.
var (
	// ErrInvalidConfiguration indicates an unsupported method or bad counts.
	ErrInvalidConfiguration = model.ErrInvalidConfiguration
	// ErrDimensionMismatch indicates inconsistent H, D, or W shapes.
	ErrDimensionMismatch = model.ErrDimensionMismatch
	// ErrNumericalInstability indicates an ill-conditioned pseudo-inverse or
	// a degenerate effective channel.
	ErrNumericalInstability = model.ErrNumericalInstability
	// ErrCollaboratorFailure indicates the channel model failed or returned
	// malformed output.
	ErrCollaboratorFailure = model.ErrCollaboratorFailure
)

// ConditionError reports a zero-forcing Gram matrix whose 2-norm condition
// number exceeds the configured limit.
type ConditionError struct {
	Method    model.Method
	User      int
	Users     int
	Antennas  int
	Condition float64
	Limit     float64
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("%s: %s precoding for user %d (H is %dx%d): Gram matrix condition number %.3e exceeds limit %.3e",
		ErrNumericalInstability, e.Method, e.User, e.Users, e.Antennas, e.Condition, e.Limit)
}

// Unwrap lets errors.Is match ErrNumericalInstability.
func (e *ConditionError) Unwrap() error { return ErrNumericalInstability }

// Outcome labels returned by ErrorKind.
const (
	OutcomeOK                   = "ok"
	OutcomeInvalidConfiguration = "invalid_configuration"
	OutcomeDimensionMismatch    = "dimension_mismatch"
	OutcomeNumericalInstability = "numerical_instability"
	OutcomeCollaboratorFailure  = "collaborator_failure"
	OutcomeCanceled             = "canceled"
	OutcomeUnclassified         = "error"
)

// ErrorKind maps an error onto a stable, low-cardinality label suitable for
// metrics and reports.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, ErrCollaboratorFailure):
		return OutcomeCollaboratorFailure
	case errors.Is(err, ErrInvalidConfiguration):
		return OutcomeInvalidConfiguration
	case errors.Is(err, ErrDimensionMismatch):
		return OutcomeDimensionMismatch
	case errors.Is(err, ErrNumericalInstability):
		return OutcomeNumericalInstability
	default:
		return OutcomeUnclassified
	}
}
