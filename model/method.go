package model

import (
	"fmt"
	"strings"
)

// Method selects the precoding strategy.
type Method string

const (
	// MethodMRT is maximum-ratio transmission: each user's weight follows the
	// conjugate of its own effective channel.
	MethodMRT Method = "MRT"
	// MethodZF is zero-forcing: weights are taken from the right
	// pseudo-inverse of the effective channel so cross-user gain vanishes.
	MethodZF Method = "ZF"
)

// Methods lists every supported method in a stable order.
func Methods() []Method { return []Method{MethodMRT, MethodZF} }

// ParseMethod converts a user-supplied name into a Method. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodMRT:
		return MethodMRT, nil
	case MethodZF:
		return MethodZF, nil
	default:
		return "", fmt.Errorf("%w: unsupported beamformer method %q (want MRT or ZF)", ErrInvalidConfiguration, s)
	}
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	return m == MethodMRT || m == MethodZF
}

func (m Method) String() string { return string(m) }
