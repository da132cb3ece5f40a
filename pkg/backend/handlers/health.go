package handlers

import (
	"net/http"
	"time"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

// BackendLister reports the registered backends
type BackendLister interface {
	Backends() []types.BackendInfo
}

type HealthHandler struct {
	backends  BackendLister
	version   string
	startTime time.Time
}

func NewHealthHandler(backends BackendLister, version string) *HealthHandler {
	return &HealthHandler{
		backends:  backends,
		version:   version,
		startTime: time.Now(),
	}
}

// Status returns simple liveness status
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	SendSuccess(w, map[string]string{"status": "ok"})
}

// Health returns uptime and the configured backends
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	SendSuccess(w, backendtypes.HealthResponse{
		Status:   "healthy",
		Version:  h.version,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Backends: h.backends.Backends(),
	})
}

// Version returns version information
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	SendSuccess(w, map[string]string{"version": h.version})
}

// ListBackends returns the named backend routes with their types and models
func (h *HealthHandler) ListBackends(w http.ResponseWriter, r *http.Request) {
	SendSuccess(w, backendtypes.BackendListResponse{Backends: h.backends.Backends()})
}
