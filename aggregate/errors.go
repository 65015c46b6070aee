package aggregate

import (
	"errors"
	"fmt"
)

// Sentinel errors for aggregation.
var (
	// ErrOutOfRange is matched by every *RangeError.
	ErrOutOfRange = errors.New("aggregate: outside computed domain")

	// ErrNilField is returned when a view is requested from a nil field.
	ErrNilField = errors.New("aggregate: field is nil")
)

// RangeError reports a coordinate outside the computed domain.
type RangeError struct {
	Axis     string
	Value    float64
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("aggregate: %s=%g outside computed domain [%g, %g]", e.Axis, e.Value, e.Min, e.Max)
}

// Is reports whether target is ErrOutOfRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
