// Package observe provides observability primitives for stress computations.
//
// It wires OpenTelemetry tracing and metrics and a zerolog-backed structured
// logger. Consumers wrap engine calls with Run and report cache lookups
// through Metrics.
package observe
