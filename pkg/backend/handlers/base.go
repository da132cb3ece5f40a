package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/aii-robotic-labs/http-privacy/pkg/backend/middleware"
	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/dispatch"
)

// MaxBodyBytes caps inbound request bodies
const MaxBodyBytes = 1 << 20

// SendJSON writes payload as JSON with the given status. HTML characters are not escaped so
// message values round-trip byte for byte.
func SendJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		SendError(w, http.StatusInternalServerError, dispatch.MsgInternal)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// SendSuccess writes payload with status 200
func SendSuccess(w http.ResponseWriter, payload interface{}) {
	SendJSON(w, http.StatusOK, payload)
}

// SendError writes the uniform {"error": message} body
func SendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(backendtypes.ErrorResponse{Error: message})
}

// WriteResult translates a facade Result into a response. Causes are logged, never returned.
func WriteResult(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, result dispatch.Result) {
	if result.Failed() {
		if result.Err.Err != nil && logger != nil {
			logger.WithFields(logrus.Fields{
				"request_id": middleware.GetRequestID(r.Context()),
				"kind":       result.Err.Kind.String(),
				"status":     result.Status,
			}).WithError(result.Err.Err).Debug("request failed")
		}
		SendError(w, result.Status, result.Err.Message)
		return
	}
	SendJSON(w, result.Status, result.Payload)
}

// ReadBody reads at most MaxBodyBytes of the request body
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

// NotFound answers unmatched paths
func NotFound(w http.ResponseWriter, r *http.Request) {
	SendError(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed answers known paths requested with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	SendError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
