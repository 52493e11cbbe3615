package usecase

import "errors"

// Sentinel errors the services wrap with %w. The HTTP layer maps each to a
// status code; the orchestrator retries any failure except ErrInvalidInput
// and ErrInvariantViolation, which no second attempt can fix.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrQueueOverload         = errors.New("calculation queue is full")
	ErrInvariantViolation    = errors.New("calculation invariant violated")
)
