// Package bedrock serves models hosted on Amazon Bedrock through the Converse API.
package bedrock

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/providers/base"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

const (
	operation = "converse"
	// DefaultRegion is used when the backend sets no region
	DefaultRegion = "us-east-1"
	// DefaultMaxTokens caps the reply when the backend sets no limit
	DefaultMaxTokens = 1024
)

// converseAPI is the part of the Bedrock runtime client the provider uses
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Provider is a Bedrock backend
type Provider struct {
	base.Provider
	client converseAPI
}

// New loads AWS configuration for the backend's region and creates the runtime client. Static
// credentials are used when access_key_id is set; otherwise the default credential chain applies.
func New(ctx context.Context, name string, cfg *backendtypes.ProviderConfig) (*Provider, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.ResolveSecretAccessKey(), ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, types.NewProviderError(name, types.ErrCodeAuthentication, "failed to load AWS configuration").
			WithOriginalErr(err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if cfg.BaseURL != "" {
			o.BaseEndpoint = aws.String(cfg.BaseURL)
		}
	})
	return newWithClient(name, cfg, client), nil
}

func newWithClient(name string, cfg *backendtypes.ProviderConfig, client converseAPI) *Provider {
	return &Provider{Provider: base.New(name, cfg), client: client}
}

// Complete runs a single-turn Converse call
func (p *Provider) Complete(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.Model()),
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: message}},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(p.MaxTokensOr(DefaultMaxTokens))),
		},
	}
	if p.SystemPrompt != "" {
		input.System = []brtypes.SystemContentBlock{&brtypes.SystemContentBlockMemberText{Value: p.SystemPrompt}}
	}

	out, err := p.client.Converse(ctx, input)
	if err != nil {
		return "", p.Failure(operation, err)
	}

	text := extractText(out)
	if text == "" {
		return "", types.NewEmptyResponseError(p.Name()).WithOperation(operation)
	}
	return text, nil
}

func extractText(out *bedrockruntime.ConverseOutput) string {
	if out == nil {
		return ""
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String()
}
