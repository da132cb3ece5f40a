// Package openai serves every OpenAI-compatible chat completions backend (OpenAI, xAI, DeepSeek,
// Qwen compatible mode, Ollama) through the official SDK.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/providers/base"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

const operation = "chat_completion"

// Provider is an OpenAI-compatible chat backend
type Provider struct {
	base.Provider
	client openai.Client
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
		client:   openai.NewClient(opts...),
	}
}

// Complete sends the system instruction and message and returns the first choice's text
func (p *Provider) Complete(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if p.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(p.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(message))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.Model()),
		Messages: messages,
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", p.classify(err)
	}
	if len(completion.Choices) == 0 {
		return "", types.NewEmptyResponseError(p.Name()).WithOperation(operation)
	}
	return completion.Choices[0].Message.Content, nil
}

func (p *Provider) classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return types.NewHTTPError(p.Name(), apiErr.StatusCode, "chat completion rejected").
			WithOperation(operation).
			WithOriginalErr(err)
	}
	return p.Failure(operation, err)
}
