package dispatch

import (
	"fmt"
	"net/http"
)

// Kind tags the failure classes a route can produce
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindPreprocessingFailed
	KindUpstream
	KindBackend
	KindInternal
	KindUnknownBackend
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindPreprocessingFailed:
		return "preprocessing_failed"
	case KindUpstream:
		return "upstream_error"
	case KindBackend:
		return "backend_error"
	case KindInternal:
		return "internal"
	case KindUnknownBackend:
		return "unknown_backend"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Client-facing error texts
const (
	MsgInvalidInput        = "Invalid input data"
	MsgMissingMessage      = "Missing 'message' in request body"
	MsgPreprocessingFailed = "Failed to process data using WASM module"
	MsgInternal            = "Internal server error"
)

// Error is the tagged failure returned by every route. Message is safe to show to clients;
// Err holds the cause for logs only.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput rejects a malformed request with 400
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: message}
}

// PreprocessingFailed reports an executable failure or empty output
func PreprocessingFailed(err error) *Error {
	return &Error{Kind: KindPreprocessingFailed, Status: http.StatusInternalServerError, Message: MsgPreprocessingFailed, Err: err}
}

// UpstreamError relays a non-200 status from the forward endpoint
func UpstreamError(status int) *Error {
	return &Error{Kind: KindUpstream, Status: status, Message: fmt.Sprintf("API returned status %d", status)}
}

// BackendError reports a failed provider call for the backend labelled label
func BackendError(label string, err error) *Error {
	return &Error{
		Kind:    KindBackend,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("Failed to process %s request", label),
		Err:     err,
	}
}

// Internal hides any other failure behind a generic 500
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: MsgInternal, Err: err}
}

// UnknownBackend is returned for a named route with no registered backend
func UnknownBackend(name string) *Error {
	return &Error{Kind: KindUnknownBackend, Status: http.StatusNotFound, Message: fmt.Sprintf("Unknown backend '%s'", name)}
}
