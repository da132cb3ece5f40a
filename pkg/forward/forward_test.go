package forward

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	phttp "github.com/aii-robotic-labs/http-privacy/pkg/http"
)

type captured struct {
	userAgent string
	auth      string
	headers   http.Header
	body      string
}

func upstream(t *testing.T, status int, response string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		c.userAgent = r.UserAgent()
		c.auth = r.Header.Get("Authorization")
		c.headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		c.body = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestForward_Success(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `{"reply":"ok"}`)

	client, err := New(context.Background(), backendtypes.ForwardConfig{
		URL:     srv.URL,
		Headers: map[string]string{"X-Client": "http-privacy"},
	}, nil)
	require.NoError(t, err)

	status, body, err := client.Forward(context.Background(), []byte(`PROCESSED`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"reply":"ok"}`, string(body))

	assert.Equal(t, "PROCESSED", got.body)
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Equal(t, "http-privacy", got.headers.Get("X-Client"))
	assert.Empty(t, got.auth)
	assert.NotEmpty(t, got.userAgent)
	assert.NotEqual(t, phttp.DefaultUserAgent, got.userAgent)
	assert.Equal(t, int64(1), client.Metrics().TotalRequests)
}

func TestForward_StaticUserAgent(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `{}`)

	client, err := New(context.Background(), backendtypes.ForwardConfig{URL: srv.URL, UserAgent: "fixed/2.0"}, nil)
	require.NoError(t, err)

	_, _, err = client.Forward(context.Background(), []byte(`x`))
	require.NoError(t, err)
	assert.Equal(t, "fixed/2.0", got.userAgent)
}

func TestForward_NonOKIsNotAnError(t *testing.T) {
	srv, _ := upstream(t, http.StatusTooManyRequests, `{"error":"slow down"}`)

	client, err := New(context.Background(), backendtypes.ForwardConfig{URL: srv.URL}, nil)
	require.NoError(t, err)

	status, body, err := client.Forward(context.Background(), []byte(`x`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, string(body), "slow down")
}

func TestForward_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(context.Background(), backendtypes.ForwardConfig{URL: url}, nil)
	require.NoError(t, err)

	_, _, err = client.Forward(context.Background(), []byte(`x`))
	assert.ErrorContains(t, err, "forward request")
}

func TestForward_StaticBearerToken(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `{}`)
	t.Setenv("FORWARD_TOKEN_TEST", "secret-token")

	client, err := New(context.Background(), backendtypes.ForwardConfig{
		URL:  srv.URL,
		Auth: backendtypes.ForwardAuthConfig{TokenEnv: "FORWARD_TOKEN_TEST"},
	}, nil)
	require.NoError(t, err)

	_, _, err = client.Forward(context.Background(), []byte(`x`))
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", got.auth)
}

func TestForward_ClientCredentials(t *testing.T) {
	var tokenRequests int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenRequests, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"cc-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	srv, got := upstream(t, http.StatusOK, `{}`)

	client, err := New(context.Background(), backendtypes.ForwardConfig{
		URL: srv.URL,
		Auth: backendtypes.ForwardAuthConfig{
			TokenURL:     tokenSrv.URL,
			ClientID:     "id",
			ClientSecret: "secret",
			Scopes:       []string{"ai.write"},
		},
	}, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err = client.Forward(context.Background(), []byte(`x`))
		require.NoError(t, err)
	}
	assert.Equal(t, "Bearer cc-token", got.auth)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenRequests))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), backendtypes.ForwardConfig{}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), backendtypes.ForwardConfig{
		URL:  "http://localhost",
		Auth: backendtypes.ForwardAuthConfig{TokenURL: "http://localhost/token"},
	}, nil)
	assert.ErrorContains(t, err, "client_id")
}
