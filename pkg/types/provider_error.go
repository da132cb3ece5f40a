package types

import (
	"fmt"
	"net/http"
)

// ErrorCode categorizes provider errors
type ErrorCode string

const (
	ErrCodeUnknown        ErrorCode = "unknown"
	ErrCodeAuthentication ErrorCode = "authentication"
	ErrCodeRateLimit      ErrorCode = "rate_limit"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeServerError    ErrorCode = "server_error"
	ErrCodeTimeout        ErrorCode = "timeout"
	ErrCodeNetwork        ErrorCode = "network"
	ErrCodeEmptyResponse  ErrorCode = "empty_response"
)

// ProviderError represents a standardized error from a backend call
type ProviderError struct {
	Code        ErrorCode // Categorized error code
	Message     string    // Human-readable message
	StatusCode  int       // HTTP status code (0 if not applicable)
	Backend     string    // Which backend generated this error
	Operation   string    // What operation failed (e.g., "chat_completion", "text_to_image")
	OriginalErr error     // Wrapped original error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Message
	if e.OriginalErr != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.OriginalErr)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (status=%d, code=%s)", e.Backend, msg, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("[%s] %s (code=%s)", e.Backend, msg, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// WithOperation sets the operation field and returns the error for chaining
func (e *ProviderError) WithOperation(operation string) *ProviderError {
	e.Operation = operation
	return e
}

// WithStatusCode sets the status code field and returns the error for chaining
func (e *ProviderError) WithStatusCode(statusCode int) *ProviderError {
	e.StatusCode = statusCode
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *ProviderError) WithOriginalErr(err error) *ProviderError {
	e.OriginalErr = err
	return e
}

// NewProviderError creates a new ProviderError
func NewProviderError(backend string, code ErrorCode, message string) *ProviderError {
	return &ProviderError{
		Code:    code,
		Message: message,
		Backend: backend,
	}
}

// NewEmptyResponseError is returned when a provider answered without any text
func NewEmptyResponseError(backend string) *ProviderError {
	return &ProviderError{
		Code:    ErrCodeEmptyResponse,
		Message: "provider returned no content",
		Backend: backend,
	}
}

// NewHTTPError builds a ProviderError classified from an HTTP status
func NewHTTPError(backend string, statusCode int, message string) *ProviderError {
	return &ProviderError{
		Code:       ClassifyHTTPError(statusCode),
		Message:    message,
		Backend:    backend,
		StatusCode: statusCode,
	}
}

// ClassifyHTTPError determines error code from HTTP status
func ClassifyHTTPError(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAuthentication
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrCodeTimeout
	default:
		if statusCode >= 500 {
			return ErrCodeServerError
		}
		return ErrCodeUnknown
	}
}
