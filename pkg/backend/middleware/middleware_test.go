package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler(statusCode int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	})
}

func bufferLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger, &buf
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	requestID := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(requestID)
	assert.NoError(t, err)
	assert.Equal(t, requestID, captured)
}

func TestRequestID_UsesExistingHeader(t *testing.T) {
	handler := RequestID(testHandler(http.StatusOK, "OK"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "existing-request-id-12345")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "existing-request-id-12345", w.Header().Get(RequestIDHeader))
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetRequestID(context.WithValue(context.Background(), RequestIDKey, 12345)))
	assert.Equal(t, "id", GetRequestID(context.WithValue(context.Background(), RequestIDKey, "id")))
}

func TestRecovery(t *testing.T) {
	logger, buf := bufferLogger()
	handler := RequestID(Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/xai", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "test panic")
	assert.Contains(t, buf.String(), w.Header().Get(RequestIDHeader))
}

func TestRecovery_PassThrough(t *testing.T) {
	logger, _ := bufferLogger()
	w := httptest.NewRecorder()
	Recovery(logger)(testHandler(http.StatusTeapot, "tea")).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestLogging_RoutePattern(t *testing.T) {
	logger, buf := bufferLogger()

	r := chi.NewRouter()
	r.Use(Logging(logger))
	r.Post("/{backend}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("abc"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/xai", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request served", entry["msg"])
	assert.Equal(t, "/{backend}", entry["route"])
	assert.Equal(t, "/xai", entry["path"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(3), entry["bytes"])
}

func TestLogging_ServerErrorsWarn(t *testing.T) {
	logger, buf := bufferLogger()
	Logging(logger)(testHandler(http.StatusBadGateway, "")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/ai", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "unmatched", entry["route"])
}

type observation struct {
	route, method string
	status        int
}

type fakeObserver struct {
	seen []observation
}

func (f *fakeObserver) ObserveRequest(route, method string, status int, _ time.Duration) {
	f.seen = append(f.seen, observation{route, method, status})
}

func TestMetrics(t *testing.T) {
	obs := &fakeObserver{}

	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Post("/{backend}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/gemini", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/a/b/c", nil))

	require.Len(t, obs.seen, 2)
	assert.Equal(t, observation{"/{backend}", http.MethodPost, http.StatusInternalServerError}, obs.seen[0])
	assert.Equal(t, observation{"unmatched", http.MethodPost, http.StatusNotFound}, obs.seen[1])
}

func TestSecureHeaders(t *testing.T) {
	handler := SecureHeaders(SecureConfig{})(testHandler(http.StatusOK, "{}"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, DefaultContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
}

func TestCORS(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://example.com"}, AllowCredentials: true})(testHandler(http.StatusOK, "OK"))

	t.Run("AllowedOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "OK", w.Body.String())
	})

	t.Run("DisallowedOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Origin", "https://evil.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/xai", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})
}

func TestAuth(t *testing.T) {
	handler := Auth(AuthConfig{
		Enabled:     true,
		APIPassword: "s3cret",
		PublicPaths: []string{"/health", "/metrics"},
	})(testHandler(http.StatusOK, "OK"))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"ValidKey", "/xai", "Bearer s3cret", http.StatusOK},
		{"WrongKey", "/xai", "Bearer nope", http.StatusUnauthorized},
		{"NoBearerPrefix", "/xai", "s3cret", http.StatusUnauthorized},
		{"Missing", "/", "", http.StatusUnauthorized},
		{"PublicPath", "/health", "", http.StatusOK},
		{"PublicPathIsExact", "/healthz", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Invalid or missing API key"}`, w.Body.String())
			}
		})
	}
}

func TestAuth_DisabledOrNoKey(t *testing.T) {
	for _, cfg := range []AuthConfig{
		{Enabled: false, APIPassword: "x"},
		{Enabled: true, APIKeyEnv: "HTTP_PRIVACY_UNSET_KEY_FOR_TEST"},
	} {
		w := httptest.NewRecorder()
		Auth(cfg)(testHandler(http.StatusOK, "OK")).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
