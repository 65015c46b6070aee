package stress

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *ValidationError.
var ErrInvalidInput = errors.New("stress: invalid input")

// ValidationError reports a rejected input parameter.
type ValidationError struct {
	// Param names the offending parameter (e.g. "q", "radius", "z[3]").
	Param string

	// Value is the rejected value.
	Value any

	// Reason describes the violated constraint.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stress: invalid %s=%v: %s", e.Param, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(param string, value any, reason string) error {
	return &ValidationError{Param: param, Value: value, Reason: reason}
}
