// Package imagegen drives the Stability AI text-to-image API and writes the generated image to
// disk. It has no HTTP route; the generate-image command is its only caller.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	phttp "github.com/aii-robotic-labs/http-privacy/pkg/http"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

const (
	operation     = "text_to_image"
	backendName   = "stability"
	DefaultWidth  = 512
	DefaultHeight = 512
	DefaultSteps  = 50
	DefaultCFG    = 7
)

// TextPrompt is one weighted prompt
type TextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight,omitempty"`
}

// TextToImageRequest is the body of the text-to-image endpoint
type TextToImageRequest struct {
	TextPrompts []TextPrompt `json:"text_prompts"`
	CFGScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

// Artifact is one generated image
type Artifact struct {
	Base64       string `json:"base64"`
	Seed         int64  `json:"seed"`
	FinishReason string `json:"finishReason"`
}

// TextToImageResponse is the answer of the text-to-image endpoint
type TextToImageResponse struct {
	Artifacts []Artifact `json:"artifacts"`
}

// Client calls the text-to-image endpoint
type Client struct {
	baseURL string
	engine  string
	apiKey  string
	client  *phttp.HTTPClient
}

// New creates a client. transport may be nil to use http.DefaultTransport.
func New(cfg backendtypes.ImageConfig, transport http.RoundTripper) (*Client, error) {
	apiKey := cfg.ResolveAPIKey()
	if apiKey == "" {
		return nil, types.NewProviderError(backendName, types.ErrCodeAuthentication, "missing Stability API key").
			WithOperation(operation)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		engine:  cfg.Engine,
		apiKey:  apiKey,
		client: phttp.NewHTTPClientBuilder().
			WithTimeout(cfg.Timeout).
			WithTransport(transport).
			Build(),
	}, nil
}

// Generate requests one image and returns its PNG bytes. Zero dimensions and steps use the
// defaults.
func (c *Client) Generate(ctx context.Context, req backendtypes.ImageRequest) ([]byte, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}

	body := TextToImageRequest{
		TextPrompts: []TextPrompt{{Text: req.Prompt}},
		CFGScale:    DefaultCFG,
		Height:      orDefault(req.Height, DefaultHeight),
		Width:       orDefault(req.Width, DefaultWidth),
		Samples:     1,
		Steps:       orDefault(req.Steps, DefaultSteps),
	}

	endpoint := fmt.Sprintf("%s/v1/generation/%s/text-to-image", c.baseURL, c.engine)
	httpReq, err := phttp.NewJSONRequest(http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(ctx, httpReq)
	if err != nil {
		return nil, types.NewProviderError(backendName, types.ErrCodeNetwork, "request failed").
			WithOperation(operation).
			WithOriginalErr(err)
	}

	var result TextToImageResponse
	if err := phttp.ProcessJSONResponse(resp, &result); err != nil {
		var apiErr *phttp.APIError
		if errors.As(err, &apiErr) {
			return nil, types.NewHTTPError(backendName, apiErr.StatusCode, apiErr.Message).
				WithOperation(operation).
				WithOriginalErr(err)
		}
		return nil, err
	}

	if len(result.Artifacts) == 0 || result.Artifacts[0].Base64 == "" {
		return nil, types.NewEmptyResponseError(backendName).WithOperation(operation)
	}
	image, err := base64.StdEncoding.DecodeString(result.Artifacts[0].Base64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return image, nil
}

// GenerateToFile generates one image and writes it to path
func (c *Client) GenerateToFile(ctx context.Context, req backendtypes.ImageRequest, path string) error {
	image, err := c.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
