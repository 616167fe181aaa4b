// Package errors provides custom error types for the application.
// Every failure that crosses a package boundary is an AppError carrying a code,
// so HTTP handlers and the task state machine can classify it without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode string

// Error codes for different error categories
const (
	// Request errors (1xxx)
	ErrCodeInvalidRequest ErrorCode = "E1001"

	// Upstream hosting errors (4xxx)
	ErrCodeUpstreamFetch ErrorCode = "E4001"

	// Configuration errors (5xxx)
	ErrCodeConfigNotFound ErrorCode = "E5001"
	ErrCodeConfigInvalid  ErrorCode = "E5002"
	ErrCodeConfigParse    ErrorCode = "E5003"

	// Analyzer errors (6xxx)
	ErrCodeAnalyzer ErrorCode = "E6001"
	ErrCodeParse    ErrorCode = "E6002"

	// Task errors (7xxx)
	ErrCodeTaskExhausted ErrorCode = "E7001"
	ErrCodeTimeout       ErrorCode = "E7002"
	ErrCodeTaskNotFound  ErrorCode = "E7003"

	// Storage errors (8xxx)
	ErrCodeStore         ErrorCode = "E8001"
	ErrCodeStateConflict ErrorCode = "E8002"

	// General errors (9xxx)
	ErrCodeInternal ErrorCode = "E9001"
)

// Exit codes for application startup failures
const (
	// ExitCodeConfigValidation indicates the configuration check found errors
	ExitCodeConfigValidation = 2
)

// AppError represents an application-level error with code and context
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
	Details any       `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for the error
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeTaskNotFound:
		return http.StatusNotFound
	case ErrCodeStateConflict:
		return http.StatusConflict
	case ErrCodeParse:
		return http.StatusUnprocessableEntity
	case ErrCodeUpstreamFetch, ErrCodeAnalyzer:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// ErrInvalidRequest creates a validation error for malformed input
func ErrInvalidRequest(message string) *AppError {
	return New(ErrCodeInvalidRequest, message)
}

// ErrInternal creates an internal server error
func ErrInternal(message string, err error) *AppError {
	return Wrap(ErrCodeInternal, message, err)
}

// ErrTaskNotFound creates a not found error for a task id
func ErrTaskNotFound(taskID string) *AppError {
	return New(ErrCodeTaskNotFound, fmt.Sprintf("task %s not found", taskID))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError attempts to convert an error to AppError, searching the wrap chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// CodeOf returns the code of the outermost AppError in err's chain, or ErrCodeInternal
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
