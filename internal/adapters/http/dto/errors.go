// Package dto holds the JSON shapes exchanged over HTTP and their validation.
package dto

import "net/http"

// ErrorResponse is the envelope for every error response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	// Code is machine-readable, one of the ErrorCode constants.
	Code string `json:"code"`

	Message string `json:"message"`

	// Details carries per-field messages for validation failures.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeConflict     = "CONFLICT"
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeForbidden    = "FORBIDDEN"
	ErrorCodeUnauthorized = "UNAUTHORIZED"
	ErrorCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal     = "INTERNAL_ERROR"
	ErrorCodeTimeout      = "TIMEOUT"
	ErrorCodeBadRequest   = "BAD_REQUEST"
)

// NewErrorResponse creates an error response.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// NewErrorResponseWithDetails creates an error response with field details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}}
}

// WithTraceID sets the trace id and returns e.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

var statusByCode = map[string]int{
	ErrorCodeNotFound:     http.StatusNotFound,
	ErrorCodeConflict:     http.StatusConflict,
	ErrorCodeValidation:   http.StatusBadRequest,
	ErrorCodeBadRequest:   http.StatusBadRequest,
	ErrorCodeForbidden:    http.StatusForbidden,
	ErrorCodeUnauthorized: http.StatusUnauthorized,
	ErrorCodeUnavailable:  http.StatusServiceUnavailable,
	ErrorCodeTimeout:      http.StatusGatewayTimeout,
}

// HTTPStatusFromCode maps an error code to its HTTP status. Unknown codes
// are internal errors.
func HTTPStatusFromCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}
