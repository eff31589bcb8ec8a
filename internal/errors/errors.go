package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeDeviceUnavailable ErrorType = "device_unavailable"
	ErrorTypePermissionDenied  ErrorType = "permission_denied"
	ErrorTypeDeviceBusy        ErrorType = "device_busy"
	ErrorTypeUnsupported       ErrorType = "unsupported"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeProcessing        ErrorType = "processing"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewDeviceUnavailableError reports that no capture device is present.
// Terminal for the current open attempt.
func NewDeviceUnavailableError(message string, cause error) *AppError {
	return newError(ErrorTypeDeviceUnavailable, http.StatusServiceUnavailable, message, cause)
}

// NewPermissionDeniedError reports that access to the capture device was declined
func NewPermissionDeniedError(message string, cause error) *AppError {
	return newError(ErrorTypePermissionDenied, http.StatusForbidden, message, cause)
}

// NewDeviceBusyError reports that another session holds the capture device
func NewDeviceBusyError(message string, cause error) *AppError {
	return newError(ErrorTypeDeviceBusy, http.StatusConflict, message, cause)
}

// NewUnsupportedError reports that the device cannot satisfy the request
func NewUnsupportedError(message string, cause error) *AppError {
	return newError(ErrorTypeUnsupported, http.StatusUnprocessableEntity, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return newError(ErrorTypeProcessing, http.StatusUnprocessableEntity, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// IsType checks if the error chain contains an AppError of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetType returns the error type, or internal for foreign errors
func GetType(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// AsAppError returns the first AppError in the chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}
