package clubhouse

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrAlreadyExists = errors.New("clubhouse: already exists")
	ErrInvalidInput  = errors.New("clubhouse: invalid input")
	ErrClockReadOnly = errors.New("clubhouse: clock cannot be advanced")
	ErrEngineClosed  = errors.New("clubhouse: engine closed")

	// Authorization errors
	ErrNoRootConfigured = errors.New("clubhouse: no root account configured")
	ErrNotAuthorized    = errors.New("clubhouse: caller is not root")
	ErrNotOwner         = errors.New("clubhouse: caller is not the club owner")

	// Lookup errors
	ErrClubNotFound        = errors.New("clubhouse: club not found")
	ErrRequestNotFound     = errors.New("clubhouse: membership request not found")
	ErrNoExpiredMembership = errors.New("clubhouse: no expired membership found")
	ErrMemberNotFound      = errors.New("clubhouse: member not found")
	ErrBucketNotFound      = errors.New("clubhouse: expiration bucket not found")
	ErrEntryNotFound       = errors.New("clubhouse: expiration entry not found")

	// Conflict errors
	ErrAlreadyRequested     = errors.New("clubhouse: membership already requested")
	ErrAlreadyMember        = errors.New("clubhouse: already a member")
	ErrHasExpiredMembership = errors.New("clubhouse: membership expired, request a renewal")

	// Validation errors
	ErrDurationExceeded = errors.New("clubhouse: duration exceeds maximum")
	ErrZeroDuration     = errors.New("clubhouse: duration must be at least one unit")

	// Arithmetic errors
	ErrArithmeticOverflow = errors.New("clubhouse: arithmetic overflow")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("clubhouse: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "clubhouse: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("clubhouse: %d errors occurred: %v", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns nil when nothing was collected.
func (e MultiError) ErrorOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// IsNotFound returns true if the error is a lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClubNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrNoExpiredMembership) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrBucketNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}

// IsConflict returns true if the error reports a membership state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyRequested) ||
		errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrHasExpiredMembership)
}

// IsAuthorization returns true if the caller was not allowed to act.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNoRootConfigured) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrNotOwner)
}
