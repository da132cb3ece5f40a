// Package gemini serves Google Gemini backends through the REST generateContent endpoint.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	phttp "github.com/aii-robotic-labs/http-privacy/pkg/http"
	"github.com/aii-robotic-labs/http-privacy/pkg/providers/base"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

const (
	operation = "generate_content"
	// DefaultBaseURL is the public Generative Language API
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Provider is a Gemini backend
type Provider struct {
	base.Provider
	baseURL string
	apiKey  string
	client  *phttp.HTTPClient
}

// New creates the provider. transport may be nil to use http.DefaultTransport.
func New(name string, cfg *backendtypes.ProviderConfig, transport http.RoundTripper) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		Provider: base.New(name, cfg),
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   cfg.ResolveAPIKey(),
		client:   phttp.NewHTTPClientBuilder().WithTransport(transport).Build(),
	}
}

// Complete calls generateContent and joins the text parts of the first candidate
func (p *Provider) Complete(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	request := GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: message}}}},
	}
	if p.SystemPrompt != "" {
		request.SystemInstruction = &Content{Parts: []Part{{Text: p.SystemPrompt}}}
	}
	if p.MaxTokens > 0 {
		request.GenerationConfig = &GenerationConfig{MaxOutputTokens: p.MaxTokens}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, url.PathEscape(p.Model()))
	req, err := phttp.NewJSONRequest(http.MethodPost, endpoint, request)
	if err != nil {
		return "", p.Failure(operation, err)
	}
	if p.apiKey != "" {
		req.Header.Set("x-goog-api-key", p.apiKey)
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return "", p.Failure(operation, err)
	}

	var response GenerateContentResponse
	if err := phttp.ProcessJSONResponse(resp, &response); err != nil {
		var apiErr *phttp.APIError
		if errors.As(err, &apiErr) {
			return "", types.NewHTTPError(p.Name(), apiErr.StatusCode, apiErr.Message).
				WithOperation(operation).
				WithOriginalErr(err)
		}
		return "", p.Failure(operation, err)
	}

	return p.extractText(response)
}

func (p *Provider) extractText(response GenerateContentResponse) (string, error) {
	if len(response.Candidates) == 0 {
		return "", types.NewEmptyResponseError(p.Name()).WithOperation(operation)
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", types.NewEmptyResponseError(p.Name()).WithOperation(operation)
	}
	return sb.String(), nil
}
