package domain

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "ANALYSIS_IN_PROGRESS"
	ErrCodeAnalysisService    = "ANALYSIS_SERVICE_ERROR"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrCodeFeatureUnavailable = "FEATURE_UNAVAILABLE"
)

// Sentinel errors shared across packages
var (
	ErrNotFound           = errors.New("not found")
	ErrAnalysisInProgress = errors.New("an analysis is already in progress for this session")
	ErrInvalidUpload      = errors.New("invalid upload")
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Unwrap lets callers match validation failures with errors.Is(err, ErrInvalidUpload).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidUpload
}

// ServiceError is a failure of the remote analysis service, reduced to a single
// human-readable message for the dashboard.
type ServiceError struct {
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("analysis service error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("analysis service error: %s", e.Message)
}

// Unwrap returns the underlying transport error, if any.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
