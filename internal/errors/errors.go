// Package errors defines the structured API error type and the mapping from
// domain errors to HTTP responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"golook/internal/calibration"
	"golook/internal/dataset"
	"golook/internal/look"
	"golook/pkg/calc"
	"golook/pkg/units"
)

// APIError is a structured API error response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError carries per-field validation details.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates an APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")

	ErrNotFound          = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrReductionNotFound = New(http.StatusNotFound, "REDUCTION_NOT_FOUND", "Reduction not found")
	ErrRecordingNotFound = New(http.StatusNotFound, "RECORDING_NOT_FOUND", "Recording not found")

	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	ErrInternalServer   = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrReductionFailed  = New(http.StatusInternalServerError, "REDUCTION_FAILED", "Reduction execution failed")
	ErrWebSocketUpgrade = New(http.StatusInternalServerError, "WEBSOCKET_UPGRADE_FAILED", "WebSocket upgrade failed")
)

// InvalidRequestWithError wraps a decode failure.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NotFoundError creates a not-found error for a named resource.
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// FileSystemError wraps a filesystem failure.
func FileSystemError(operation string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "FILESYSTEM_ERROR",
		fmt.Sprintf("File system error during %s", operation), err.Error())
}

// FromDomain maps a domain error to its API representation. Transform and
// plan errors caused by bad input become 4xx; everything else is a 500.
func FromDomain(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case stderrors.Is(err, calc.ErrIndexOutOfRange):
		return NewWithDetails(http.StatusBadRequest, "INDEX_OUT_OF_RANGE",
			"Transform index outside the recorded range", err.Error())
	case stderrors.Is(err, calc.ErrInvalidMode):
		return NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER",
			"Invalid transform argument", err.Error())
	case stderrors.Is(err, units.ErrUnitMismatch):
		return NewWithDetails(http.StatusUnprocessableEntity, "UNIT_MISMATCH",
			"Channel units are incompatible with the requested transform", err.Error())
	case stderrors.Is(err, units.ErrUnknownUnit):
		return NewWithDetails(http.StatusBadRequest, "UNKNOWN_UNIT",
			"Unknown unit label", err.Error())
	case stderrors.Is(err, units.ErrLengthMismatch):
		return NewWithDetails(http.StatusUnprocessableEntity, "LENGTH_MISMATCH",
			"Channel lengths do not match", err.Error())
	case stderrors.Is(err, dataset.ErrChannelNotFound):
		return NewWithDetails(http.StatusBadRequest, "CHANNEL_NOT_FOUND",
			"Named channel is not in the dataset", err.Error())
	case stderrors.Is(err, dataset.ErrRaggedDataset):
		return NewWithDetails(http.StatusUnprocessableEntity, "RAGGED_DATASET",
			"Dataset channels have unequal lengths", err.Error())
	case stderrors.Is(err, calibration.ErrInvalidPlan):
		return NewWithDetails(http.StatusBadRequest, "INVALID_PLAN",
			"Reduction plan failed validation", err.Error())
	case stderrors.Is(err, look.ErrBadMagic),
		stderrors.Is(err, look.ErrUnsupportedVersion),
		stderrors.Is(err, look.ErrCorrupt):
		return NewWithDetails(http.StatusUnprocessableEntity, "BAD_RECORDING",
			"Recording file is corrupt or unsupported", err.Error())
	}
	return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
		"Internal server error", err.Error())
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse wraps an APIError in the standard envelope.
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{Success: false, Error: err}
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// RenderError writes the API representation of err to the response.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	render.Render(w, r, NewErrorResponse(FromDomain(err)))
}
