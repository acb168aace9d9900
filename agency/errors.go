/*
errors.go - Centralized error types for the agency engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these with context and test them with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - non-positive amount, missing required field.
     Reported synchronously, operation aborted, nothing mutated.
  2. Not-found errors  - unknown client or booking id.
     Ledger operations on an unknown client fail hard. The lifecycle
     coordinator treats an unresolved client NAME as a soft miss instead.

  An unparsable booking price is NOT an error: it degrades to zero.

SEE ALSO:
  - ledger.go: ErrInvalidAmount, ErrUnknownClient
  - bookings.go: ErrUnknownBooking
  - api/handlers.go: HTTP status mapping
*/
package agency

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is the root of every unknown-entity failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAmount is returned when a ledger amount is zero, negative or not finite.
	ErrInvalidAmount = &ValidationError{Field: "amount", Message: "must be a positive finite number"}

	// ErrUnknownClient is returned when a client id does not exist.
	ErrUnknownClient = fmt.Errorf("unknown client: %w", ErrNotFound)

	// ErrUnknownBooking is returned when a booking id does not exist.
	ErrUnknownBooking = fmt.Errorf("unknown booking: %w", ErrNotFound)

	// ErrDuplicateID is returned when an explicit id is already taken.
	ErrDuplicateID = &ValidationError{Field: "id", Message: "already exists"}
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes which input field was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Required builds the validation error for a missing required field.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}

// NotFoundError names the kind and id of a missing entity.
type NotFoundError struct {
	Kind string // "client" or "booking"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "client":
		return ErrUnknownClient
	case "booking":
		return ErrUnknownBooking
	default:
		return ErrNotFound
	}
}

func unknownClient(id ClientID) error   { return &NotFoundError{Kind: "client", ID: string(id)} }
func unknownBooking(id BookingID) error { return &NotFoundError{Kind: "booking", ID: string(id)} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
