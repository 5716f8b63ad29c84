// Package clients provides instrumented HTTP clients for downstream services.
package clients

import "errors"

// Transport failures. Callers translate these into domain errors.
var (
	// ErrCircuitOpen means the breaker is rejecting calls to an unhealthy downstream.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRequestFailed wraps the last transport error once attempts are exhausted.
	ErrRequestFailed = errors.New("downstream request failed")
)
