// Package model defines the domain entities for the reservation system
// together with the error kinds that business rules can surface. These
// sentinel values and typed errors allow handlers to distinguish between
// failure scenarios: a seat that is already taken, a lifecycle guard
// violation, a quota overflow, and so on.
package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced post, schedule, ticket option
// or reservation does not exist. Handlers should translate this into an
// HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as approving a reservation for a
// performance registered by someone else. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidState is returned when a reservation lifecycle guard is
// violated, for example approving a reservation that is no longer
// PENDING. The state did not allow the requested transition; retrying
// without an intervening state change will fail again.
var ErrInvalidState = errors.New("invalid reservation state")

// ErrLockTimeout is returned when the database could not grant a row
// lock within its lock-wait window. Unlike a seat conflict this outcome
// is transient: the caller may retry the whole booking attempt.
var ErrLockTimeout = errors.New("lock wait timeout")

// ValidationError reports a request that failed business validation
// before any seat was touched: a stale price, a quota overflow, or a
// seat-count mismatch. It is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// SeatConflictError reports that a seat could not be acquired because it
// is not available. Status carries the state the seat was observed in so
// callers can re-render availability.
type SeatConflictError struct {
	Code   string
	Status SeatStatus
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %s is not available (status %s)", e.Code, e.Status)
}

// InvalidTransitionError reports a seat status change that the state
// machine does not permit, e.g. confirming a seat that is not PENDING.
type InvalidTransitionError struct {
	Code string
	From SeatStatus
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("seat %s: cannot %s from status %s", e.Code, e.Op, e.From)
}
