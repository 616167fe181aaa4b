package llm

import (
	"errors"
	"fmt"

	apperrors "github.com/Tushar-r12345/ai-code-review-analysis/pkg/errors"
)

// Sentinel errors for common error conditions
var (
	// ErrClientNotAvailable indicates the backend is missing required configuration
	ErrClientNotAvailable = errors.New("client not available")

	// ErrInvalidResponse indicates the reply body could not be decoded
	ErrInvalidResponse = errors.New("invalid response format")

	// ErrEmptyPrompt indicates a request without prompt text
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// ClientError represents an error from an LLM client
type ClientError struct {
	// Client is the name of the client that produced the error
	Client string

	// Operation is the operation that failed (e.g., "complete")
	Operation string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status returned by the backend, 0 for transport failures
	StatusCode int

	// Err is the underlying error (if any)
	Err error

	// Retryable indicates whether the operation can be retried
	Retryable bool
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s.%s] %s: %v", e.Client, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s.%s] %s", e.Client, e.Operation, e.Message)
}

// Unwrap returns the underlying error
func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError creates a new ClientError
func NewClientError(client, operation, message string, err error) *ClientError {
	return &ClientError{
		Client:    client,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewRetryableError creates a new retryable ClientError
func NewRetryableError(client, operation, message string, err error) *ClientError {
	return &ClientError{
		Client:    client,
		Operation: operation,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// WithStatus records the backend's HTTP status
func (e *ClientError) WithStatus(code int) *ClientError {
	e.StatusCode = code
	return e
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Retryable
	}
	return false
}

// IsRetryableStatus reports whether an HTTP status from a backend is worth retrying
func IsRetryableStatus(code int) bool {
	return code == 429 || code >= 500
}

// AnalyzerError converts a client failure into the application error surfaced
// to callers. Errors that already carry an application code are returned as is.
func AnalyzerError(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	appErr := apperrors.Wrap(apperrors.ErrCodeAnalyzer, "analyzer request failed", err)
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.StatusCode != 0 {
		appErr.WithDetails(map[string]int{"status_code": clientErr.StatusCode})
	}
	return appErr
}
