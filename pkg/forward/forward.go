// Package forward posts preprocessed payloads to the remote AI endpoint. Every request carries a
// freshly generated browser User-Agent unless a static one is configured, and may be authenticated
// with a bearer token or OAuth2 client credentials.
package forward

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	phttp "github.com/aii-robotic-labs/http-privacy/pkg/http"
)

// Client is the forward endpoint client
type Client struct {
	url    string
	client *phttp.HTTPClient
}

// New creates a forward client. ctx scopes token fetches for client credentials and should
// outlive individual requests. base may be nil to use http.DefaultTransport.
func New(ctx context.Context, cfg backendtypes.ForwardConfig, base http.RoundTripper) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("forward url is required")
	}

	transport, err := authTransport(ctx, cfg.Auth, base)
	if err != nil {
		return nil, err
	}

	builder := phttp.NewHTTPClientBuilder().
		WithTimeout(cfg.Timeout).
		WithHeaders(cfg.Headers).
		WithTransport(transport)
	if cfg.UserAgent != "" {
		builder = builder.WithUserAgent(cfg.UserAgent)
	} else {
		builder = builder.WithRequestInterceptor(phttp.SyntheticUserAgent{})
	}

	return &Client{url: cfg.URL, client: builder.Build()}, nil
}

// Forward sends payload as the POST body and returns the status and body of the answer.
// Non-200 statuses are not errors; err is set only when no answer was received.
func (c *Client) Forward(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, resp, err := c.client.DoWithFullResponse(ctx, req)
	if err != nil {
		return 0, nil, fmt.Errorf("forward request to %s failed: %w", c.url, err)
	}
	return resp.StatusCode, body, nil
}

// Metrics exposes the underlying client's counters
func (c *Client) Metrics() phttp.ClientMetrics {
	return c.client.GetMetrics()
}

func authTransport(ctx context.Context, cfg backendtypes.ForwardAuthConfig, base http.RoundTripper) (http.RoundTripper, error) {
	if token := cfg.ResolveToken(); token != "" {
		return &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		}, nil
	}

	if cfg.TokenURL == "" {
		return base, nil
	}
	if cfg.ClientID == "" {
		return nil, errors.New("forward auth: client_id is required with token_url")
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ResolveClientSecret(),
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	return &oauth2.Transport{Source: cc.TokenSource(ctx), Base: base}, nil
}
