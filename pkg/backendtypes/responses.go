package backendtypes

import (
	"encoding/json"

	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

// EchoResponse returns the request's message value unchanged
type EchoResponse struct {
	Message json.RawMessage `json:"message"`
}

// BackendResponse wraps a provider reply together with the model that produced it
type BackendResponse struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// ErrorResponse is the uniform failure body of every route
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse for health endpoints
type HealthResponse struct {
	Status   string              `json:"status"`
	Version  string              `json:"version"`
	Uptime   string              `json:"uptime"`
	Backends []types.BackendInfo `json:"backends"`
}

// BackendListResponse lists the named backend routes
type BackendListResponse struct {
	Backends []types.BackendInfo `json:"backends"`
}
