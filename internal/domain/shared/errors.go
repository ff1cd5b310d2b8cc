// Package shared contains common domain types and errors that are used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "garment", "store", "remote"
	Op      string // Operation that failed, e.g., "Add", "Load"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Garment domain errors
var (
	ErrGarmentNotFound     = NewDomainError("garment", "Find", ErrNotFound, "garment not found")
	ErrInvalidGarmentName  = NewDomainError("garment", "Validate", ErrValidation, "garment name is required and must be at most 100 characters")
	ErrInvalidMaterial     = NewDomainError("garment", "Validate", ErrValidation, "unknown material")
	ErrInvalidCustomWashes = NewDomainError("garment", "Validate", ErrValidation, "custom washes cannot be negative")
	ErrInvalidPurchaseDate = NewDomainError("garment", "Validate", ErrValidation, "purchase date is required")
	ErrMissingOwner        = NewDomainError("garment", "Validate", ErrValidation, "owner is required")
	ErrUnknownAction       = NewDomainError("garment", "Patch", ErrInvalidInput, "action must be wash or retire")
	ErrGarmentRetired      = NewDomainError("garment", "Wash", ErrInvalidState, "retired garments cannot be washed")
	ErrAmbiguousGarmentID  = NewDomainError("garment", "Find", ErrInvalidInput, "garment id prefix matches more than one garment")
)

// Store errors
var (
	ErrMalformedSnapshot = NewDomainError("store", "Load", ErrInvalidFormat, "stored garment snapshot is malformed")
	ErrStoreUnavailable  = NewDomainError("store", "Connect", ErrServiceUnavailable, "garment store is unavailable")
)

// Remote backend errors
var (
	ErrRemoteUnavailable     = NewDomainError("remote", "Request", ErrServiceUnavailable, "garment backend is unavailable")
	ErrRemoteTimeout         = NewDomainError("remote", "Request", ErrTimeout, "garment backend request timeout")
	ErrRemoteInvalidResponse = NewDomainError("remote", "Decode", ErrInvalidFormat, "invalid response from garment backend")
	ErrRemoteUnauthorized    = NewDomainError("remote", "Request", ErrUnauthorized, "garment backend rejected credentials")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
