// Package errs provides the error taxonomy shared by the service and
// transport layers. Every error crossing a service boundary wraps exactly
// one of the four kind sentinels, so handlers can classify failures with
// errors.Is without inspecting messages.
//
// The kinds map to the externally observable outcomes:
//   - ErrInvalidRequest: the caller sent something malformed or ineligible
//   - ErrConflict: the operation lost a race or violates a uniqueness rule
//   - ErrNotFound: the referenced object does not exist (or expired)
//   - ErrInternal: an infrastructure failure the caller cannot fix
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

// InvalidRequest wraps a validation failure with the invalid-request kind.
func InvalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

// InvalidRequestCause keeps the underlying validation error in the chain.
func InvalidRequestCause(cause error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, cause)
}

// Conflict wraps a lost race or uniqueness violation with the conflict kind.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// ConflictCause keeps the underlying error in the chain.
func ConflictCause(cause error) error {
	return fmt.Errorf("%w: %w", ErrConflict, cause)
}

// NotFound wraps a missing-object failure with the not-found kind.
func NotFound(what, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, what, id)
}

// Internal wraps an infrastructure failure with the internal kind.
func Internal(action string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, action, cause)
}

// Kind helpers for handler-side classification.
func IsInvalidRequest(err error) bool { return errors.Is(err, ErrInvalidRequest) }
func IsConflict(err error) bool       { return errors.Is(err, ErrConflict) }
func IsNotFound(err error) bool       { return errors.Is(err, ErrNotFound) }
func IsInternal(err error) bool       { return errors.Is(err, ErrInternal) }
