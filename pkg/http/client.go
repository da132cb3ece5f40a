// Package http provides the outbound HTTP client shared by the forward route, the Gemini
// provider and the image generation client. It supports default headers, request and response
// interceptors and per-client metrics. It never retries: failures are surfaced to the caller.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient provides a reusable HTTP client with common patterns for AI providers
type HTTPClient struct {
	client       *http.Client
	config       HTTPClientConfig
	metrics      *ClientMetrics
	requestCount int64
	successCount int64
	errorCount   int64
	totalLatency int64 // Nanoseconds
	mu           sync.RWMutex
}

// HTTPClientConfig configures the HTTP client
type HTTPClientConfig struct {
	Timeout             time.Duration       `json:"timeout,omitempty"` // zero means no client-side timeout
	Headers             map[string]string   `json:"headers,omitempty"`
	UserAgent           string              `json:"user_agent,omitempty"`
	Transport           http.RoundTripper   `json:"-"`
	RequestInterceptor  RequestInterceptor  `json:"-"`
	ResponseInterceptor ResponseInterceptor `json:"-"`
}

// ClientMetrics tracks HTTP client performance
type ClientMetrics struct {
	TotalRequests   int64         `json:"total_requests"`
	SuccessfulReqs  int64         `json:"successful_requests"`
	FailedReqs      int64         `json:"failed_requests"`
	AvgLatency      time.Duration `json:"avg_latency"`
	LastRequestTime time.Time     `json:"last_request_time"`
	StatusCodes     map[int]int64 `json:"status_codes"`
}

// RequestInterceptor allows modifying requests before sending
type RequestInterceptor interface {
	Intercept(req *http.Request) error
}

// ResponseInterceptor allows processing responses after receiving
type ResponseInterceptor interface {
	Intercept(resp *http.Response) error
}

// RequestInterceptorFunc adapts a function to RequestInterceptor
type RequestInterceptorFunc func(req *http.Request) error

// Intercept calls f(req)
func (f RequestInterceptorFunc) Intercept(req *http.Request) error { return f(req) }

// NewHTTPClient creates a new HTTP client with common configurations
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	headers := make(map[string]string, len(config.Headers)+1)
	for k, v := range config.Headers {
		headers[k] = v
	}
	if config.UserAgent != "" {
		headers["User-Agent"] = config.UserAgent
	} else if _, ok := headers["User-Agent"]; !ok {
		headers["User-Agent"] = DefaultUserAgent
	}
	config.Headers = headers

	return &HTTPClient{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		config:  config,
		metrics: &ClientMetrics{StatusCodes: make(map[int]int64)},
	}
}

// Do executes an HTTP request once and records metrics. Default headers are applied before
// the request interceptor so an interceptor can override them.
func (c *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	atomic.AddInt64(&c.requestCount, 1)

	for key, value := range c.config.Headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	if c.config.RequestInterceptor != nil {
		if err := c.config.RequestInterceptor.Intercept(req); err != nil {
			c.updateMetrics(nil, err, time.Since(startTime))
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err == nil && c.config.ResponseInterceptor != nil {
		if interceptErr := c.config.ResponseInterceptor.Intercept(resp); interceptErr != nil {
			_ = resp.Body.Close() //nolint:errcheck // Best effort close
			c.updateMetrics(nil, interceptErr, time.Since(startTime))
			return nil, fmt.Errorf("response interceptor failed: %w", interceptErr)
		}
	}

	c.updateMetrics(resp, err, time.Since(startTime))
	return resp, err
}

// DoWithFullResponse executes request and returns the whole response body
func (c *HTTPClient) DoWithFullResponse(ctx context.Context, req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp, nil
}

// PostJSON sends a JSON POST request
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonReq, err := NewJSONRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON request: %w", err)
	}
	return c.Do(ctx, jsonReq)
}

// updateMetrics updates client metrics after a request
func (c *HTTPClient) updateMetrics(resp *http.Response, err error, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.LastRequestTime = time.Now()

	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
	} else {
		atomic.AddInt64(&c.successCount, 1)
		if resp != nil {
			c.metrics.StatusCodes[resp.StatusCode]++
		}
	}

	atomic.AddInt64(&c.totalLatency, latency.Nanoseconds())
	if totalReqs := atomic.LoadInt64(&c.requestCount); totalReqs > 0 {
		c.metrics.AvgLatency = time.Duration(atomic.LoadInt64(&c.totalLatency) / totalReqs)
	}
}

// GetMetrics returns current client metrics
func (c *HTTPClient) GetMetrics() ClientMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	metrics := *c.metrics
	metrics.StatusCodes = make(map[int]int64, len(c.metrics.StatusCodes))
	for code, n := range c.metrics.StatusCodes {
		metrics.StatusCodes[code] = n
	}
	metrics.TotalRequests = atomic.LoadInt64(&c.requestCount)
	metrics.SuccessfulReqs = atomic.LoadInt64(&c.successCount)
	metrics.FailedReqs = atomic.LoadInt64(&c.errorCount)

	return metrics
}

// HTTPClientBuilder provides a builder pattern for HTTPClient
type HTTPClientBuilder struct {
	config HTTPClientConfig
}

// NewHTTPClientBuilder creates a new builder
func NewHTTPClientBuilder() *HTTPClientBuilder {
	return &HTTPClientBuilder{}
}

// WithTimeout sets the timeout
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.config.Timeout = timeout
	return b
}

// WithHeaders sets default headers
func (b *HTTPClientBuilder) WithHeaders(headers map[string]string) *HTTPClientBuilder {
	if b.config.Headers == nil {
		b.config.Headers = make(map[string]string)
	}
	for k, v := range headers {
		b.config.Headers[k] = v
	}
	return b
}

// WithUserAgent sets the user agent
func (b *HTTPClientBuilder) WithUserAgent(userAgent string) *HTTPClientBuilder {
	b.config.UserAgent = userAgent
	return b
}

// WithTransport sets the underlying round tripper
func (b *HTTPClientBuilder) WithTransport(rt http.RoundTripper) *HTTPClientBuilder {
	b.config.Transport = rt
	return b
}

// WithRequestInterceptor sets a request interceptor
func (b *HTTPClientBuilder) WithRequestInterceptor(interceptor RequestInterceptor) *HTTPClientBuilder {
	b.config.RequestInterceptor = interceptor
	return b
}

// WithResponseInterceptor sets a response interceptor
func (b *HTTPClientBuilder) WithResponseInterceptor(interceptor ResponseInterceptor) *HTTPClientBuilder {
	b.config.ResponseInterceptor = interceptor
	return b
}

// Build creates the HTTP client
func (b *HTTPClientBuilder) Build() *HTTPClient {
	return NewHTTPClient(b.config)
}
