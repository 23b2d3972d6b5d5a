package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context. The HTTP layer maps these to
// status codes; domain packages may add finer codes of their own.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeNotFound             = "NOT_FOUND"
	CodeEstimatorUnavailable = "ESTIMATOR_UNAVAILABLE"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeDuplicateRequest     = "DUPLICATE_REQUEST"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any not-found error regardless
// of its message.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewInvalidInput reports malformed or out-of-range input.
func NewInvalidInput(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// NewInvalidTransition reports a state machine operation attempted from a
// state that does not permit it.
func NewInvalidTransition(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf(format, args...))
}

// NewNotFound reports a missing entity of the given kind.
func NewNotFound(entity string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

// NewEstimatorUnavailable reports an untrained or unreachable estimator.
func NewEstimatorUnavailable(format string, args ...any) *DomainError {
	return NewDomainError(CodeEstimatorUnavailable, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists        = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput         = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidTransition    = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrEstimatorUnavailable = NewDomainError(CodeEstimatorUnavailable, "Model not trained")
	ErrConcurrencyConflict  = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrDuplicateRequest     = NewDomainError(CodeDuplicateRequest, "Request with this idempotency key was already processed")
)

// CodeOf extracts the domain error code from err, or "" if err is not a
// domain error.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
