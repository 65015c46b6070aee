package health

import "errors"

var (
	// ErrCheckFailed is the error attached to an unhealthy result that has
	// no more specific cause, such as a heap above its critical threshold.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is attached to the result of a check that did not
	// finish within AggregatorConfig.Timeout.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
