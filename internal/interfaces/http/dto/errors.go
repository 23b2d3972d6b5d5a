package dto

import (
	"net/http"

	"github.com/erp/muhasebe/internal/domain/shared"
)

// Error codes returned in the response envelope. Domain codes come from the
// shared taxonomy; the rest are produced by the HTTP layer itself.
const (
	ErrCodeInvalidInput         = shared.CodeInvalidInput
	ErrCodeInvalidTransition    = shared.CodeInvalidTransition
	ErrCodeNotFound             = shared.CodeNotFound
	ErrCodeEstimatorUnavailable = shared.CodeEstimatorUnavailable
	ErrCodeConcurrencyConflict  = shared.CodeConcurrencyConflict
	ErrCodeAlreadyExists        = shared.CodeAlreadyExists
	ErrCodeDuplicateRequest     = shared.CodeDuplicateRequest
)

// Transport error codes
const (
	// ErrCodeValidation is used when request binding or tag validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests (bad JSON, bad path id)
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodePayloadTooLarge is used when the body exceeds http.max_body_size
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	// ErrCodeRequestInProgress is used when a request with the same
	// Idempotency-Key is still being processed
	ErrCodeRequestInProgress = "REQUEST_IN_PROGRESS"
	// ErrCodeFeatureDisabled is used for endpoints whose backing service is
	// not configured, such as the document archive
	ErrCodeFeatureDisabled = "FEATURE_DISABLED"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInvalidInput:         http.StatusBadRequest,
	ErrCodeInvalidTransition:    http.StatusConflict,
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeEstimatorUnavailable: http.StatusServiceUnavailable,
	ErrCodeConcurrencyConflict:  http.StatusConflict,
	ErrCodeAlreadyExists:        http.StatusConflict,
	ErrCodeDuplicateRequest:     http.StatusConflict,

	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodePayloadTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeRequestInProgress: http.StatusConflict,
	ErrCodeFeatureDisabled:   http.StatusServiceUnavailable,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
