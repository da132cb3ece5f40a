package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/dispatch"
	"github.com/aii-robotic-labs/http-privacy/pkg/logging"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

type stubBackend struct {
	reply string
	err   error
}

func (stubBackend) Info() types.BackendInfo {
	return types.BackendInfo{Name: "xai", Type: types.BackendTypeOpenAI, Model: "grok-2-latest"}
}

func (stubBackend) Label() string { return "xAI" }

func (b stubBackend) Complete(context.Context, string) (string, error) { return b.reply, b.err }

type stubPreprocessor struct{ out string }

func (p stubPreprocessor) Process(context.Context, []byte) ([]byte, error) { return []byte(p.out), nil }

type stubForwarder struct {
	status int
	body   string
}

func (f stubForwarder) Forward(context.Context, []byte) (int, []byte, error) {
	return f.status, []byte(f.body), nil
}

func newRouter(t *testing.T, backend stubBackend, pre stubPreprocessor, fwd stubForwarder) http.Handler {
	t.Helper()
	facade, err := dispatch.New(dispatch.Options{
		Preprocessor: pre,
		Forwarder:    fwd,
		Backends:     []dispatch.Backend{backend},
		Logger:       logging.Discard(),
	})
	require.NoError(t, err)

	h := NewDispatchHandler(facade, logging.Discard())
	health := NewHealthHandler(facade, "1.2.3")

	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
	r.Get("/health", health.Health)
	r.Get("/status", health.Status)
	r.Get("/version", health.Version)
	r.Get("/api/backends", health.ListBackends)
	r.Post("/", h.Echo)
	r.Post("/api/ai", h.PreprocessAndForward)
	r.Post("/{"+BackendParam+"}", h.Chat)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestEchoHandler(t *testing.T) {
	r := newRouter(t, stubBackend{}, stubPreprocessor{}, stubForwarder{})

	w := do(t, r, http.MethodPost, "/", `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "{\"message\":\"hi\"}\n", w.Body.String())

	w = do(t, r, http.MethodPost, "/", `{"message":"<b>&</b>"}`)
	assert.Equal(t, "{\"message\":\"<b>&</b>\"}\n", w.Body.String())

	w = do(t, r, http.MethodPost, "/", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid input data"}`, w.Body.String())
}

func TestEchoHandler_BodyTooLarge(t *testing.T) {
	r := newRouter(t, stubBackend{}, stubPreprocessor{}, stubForwarder{})

	big := `{"message":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	w := do(t, r, http.MethodPost, "/", big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreprocessHandler(t *testing.T) {
	t.Run("Relay", func(t *testing.T) {
		r := newRouter(t, stubBackend{}, stubPreprocessor{out: "p"}, stubForwarder{status: http.StatusOK, body: `{"result":"done"}`})
		w := do(t, r, http.MethodPost, "/api/ai", `{"message":"hi"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"result":"done"}`, w.Body.String())
	})

	t.Run("UpstreamStatus", func(t *testing.T) {
		r := newRouter(t, stubBackend{}, stubPreprocessor{out: "p"}, stubForwarder{status: http.StatusTeapot, body: `{}`})
		w := do(t, r, http.MethodPost, "/api/ai", `{"message":"hi"}`)
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.JSONEq(t, `{"error":"API returned status 418"}`, w.Body.String())
	})

	t.Run("EmptyOutput", func(t *testing.T) {
		r := newRouter(t, stubBackend{}, stubPreprocessor{out: ""}, stubForwarder{status: http.StatusOK, body: `{}`})
		w := do(t, r, http.MethodPost, "/api/ai", `{"message":"hi"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to process data using WASM module"}`, w.Body.String())
	})

	t.Run("MissingMessage", func(t *testing.T) {
		r := newRouter(t, stubBackend{}, stubPreprocessor{out: "p"}, stubForwarder{status: http.StatusOK, body: `{}`})
		w := do(t, r, http.MethodPost, "/api/ai", ``)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Missing 'message' in request body"}`, w.Body.String())
	})
}

func TestChatHandler(t *testing.T) {
	r := newRouter(t, stubBackend{reply: "42"}, stubPreprocessor{}, stubForwarder{})

	w := do(t, r, http.MethodPost, "/xai", `{"message":"meaning?"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp backendtypes.BackendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, backendtypes.BackendResponse{Message: "42", Model: "grok-2-latest"}, resp)

	w = do(t, r, http.MethodPost, "/nope", `{"message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Unknown backend 'nope'"}`, w.Body.String())
}

func TestChatHandler_ProviderFailure(t *testing.T) {
	r := newRouter(t, stubBackend{err: errors.New("boom")}, stubPreprocessor{}, stubForwarder{})

	w := do(t, r, http.MethodPost, "/xai", `{"message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to process xAI request"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestHealthHandlers(t *testing.T) {
	r := newRouter(t, stubBackend{}, stubPreprocessor{}, stubForwarder{})

	w := do(t, r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health backendtypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	require.Len(t, health.Backends, 1)
	assert.Equal(t, "xai", health.Backends[0].Name)

	w = do(t, r, http.MethodGet, "/status", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/version", "")
	assert.JSONEq(t, `{"version":"1.2.3"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/backends", "")
	assert.JSONEq(t, `{"backends":[{"name":"xai","type":"openai","model":"grok-2-latest"}]}`, w.Body.String())
}

func TestFallbackHandlers(t *testing.T) {
	r := newRouter(t, stubBackend{}, stubPreprocessor{}, stubForwarder{})

	w := do(t, r, http.MethodPost, "/a/b/c", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/xai", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
}

func TestSendJSON_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	SendJSON(w, http.StatusOK, make(chan int))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
