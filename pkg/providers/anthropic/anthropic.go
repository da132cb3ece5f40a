// Package anthropic serves Claude backends through the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/providers/base"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

const (
	operation = "messages"
	// DefaultMaxTokens is sent when the backend does not configure max_tokens; the API requires one
	DefaultMaxTokens = 1024
)

// Provider is a Claude backend
type Provider struct {
	base.Provider
	client anthropic.Client
}

// New creates the provider. httpClient may be nil to use the SDK default.
func New(name string, cfg *backendtypes.ProviderConfig, httpClient *http.Client) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.ResolveAPIKey()),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &Provider{
		Provider: base.New(name, cfg),
		client:   anthropic.NewClient(opts...),
	}
}

// Complete sends the message and joins the text blocks of the reply
func (p *Provider) Complete(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.Model()),
		MaxTokens: int64(p.MaxTokensOr(DefaultMaxTokens)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	}
	if p.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.SystemPrompt}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", types.NewHTTPError(p.Name(), apiErr.StatusCode, "message rejected").
				WithOperation(operation).
				WithOriginalErr(err)
		}
		return "", p.Failure(operation, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", types.NewEmptyResponseError(p.Name()).WithOperation(operation)
	}
	return sb.String(), nil
}
