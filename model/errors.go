package model

import "errors"

// Error taxonomy shared by the precoding pipeline. Callers classify failures
// with errors.Is; every returned error wraps exactly one of these.
var (
	// ErrInvalidConfiguration indicates an unsupported method, a non-positive
	// count, or a missing required configuration field.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDimensionMismatch indicates channel, allocation, or weight shapes
	// that disagree with each other or with the configuration.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNumericalInstability indicates an ill-conditioned or degenerate
	// computation whose result would not be trustworthy.
	ErrNumericalInstability = errors.New("numerical instability")
	// ErrCollaboratorFailure indicates the channel model failed or returned
	// malformed output.
	ErrCollaboratorFailure = errors.New("channel model failure")
)
