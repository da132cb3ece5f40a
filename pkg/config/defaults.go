package config

import (
	"time"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 5000
	DefaultVersion          = "1.0.0"
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultPreprocessCmd    = "wasm-module"
	DefaultPreprocessWait   = 30 * time.Second
	DefaultForwardURL       = "https://api.example.com/ai"
	DefaultMetricsPath      = "/metrics"
	DefaultMaxTokens        = 1024
	DefaultImageBaseURL     = "https://api.stability.ai"
	DefaultImageEngine      = "stable-diffusion-v1-6"
	DefaultBedrockRegion    = "us-east-1"
	defaultAssistantPrompt  = "You are a helpful assistant"
	defaultGrokSystemPrompt = "You are Grok, a chatbot inspired by the Hitchhikers Guide to the Galaxy."
)

// DefaultBackends returns the built-in named backend table. Keys are route names.
func DefaultBackends() map[string]*backendtypes.ProviderConfig {
	return map[string]*backendtypes.ProviderConfig{
		"xai": {
			Type:         types.BackendTypeOpenAI,
			DisplayName:  "xAI",
			BaseURL:      "https://api.x.ai/v1",
			APIKeyEnv:    "XAI_API_KEY",
			Model:        "grok-2-latest",
			SystemPrompt: defaultGrokSystemPrompt,
		},
		"deepseek": {
			Type:         types.BackendTypeOpenAI,
			DisplayName:  "DeepSeek",
			BaseURL:      "https://api.deepseek.com",
			APIKeyEnv:    "DEEPSEEK_API_KEY",
			Model:        "deepseek-chat",
			SystemPrompt: defaultAssistantPrompt,
		},
		"qwen": {
			Type:         types.BackendTypeOpenAI,
			DisplayName:  "Qwen",
			BaseURL:      "https://dashscope-intl.aliyuncs.com/compatible-mode/v1",
			APIKeyEnv:    "QWEN_API_KEY",
			Model:        "qwen-plus",
			SystemPrompt: defaultAssistantPrompt,
		},
		"ollama": {
			Type:         types.BackendTypeOpenAI,
			DisplayName:  "Ollama",
			BaseURL:      "http://localhost:11434/v1",
			APIKeyEnv:    "OLLAMA_API_KEY",
			Model:        "llama3.2",
			SystemPrompt: defaultAssistantPrompt,
		},
		"claude": {
			Type:         types.BackendTypeAnthropic,
			DisplayName:  "Claude",
			APIKeyEnv:    "ANTHROPIC_API_KEY",
			Model:        "claude-3-5-haiku-latest",
			SystemPrompt: defaultAssistantPrompt,
			MaxTokens:    DefaultMaxTokens,
		},
		"gemini": {
			Type:         types.BackendTypeGemini,
			DisplayName:  "Gemini",
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
			APIKeyEnv:    "GEMINI_API_KEY",
			Model:        "gemini-pro",
			SystemPrompt: defaultAssistantPrompt,
		},
		"bedrock": {
			Type:         types.BackendTypeBedrock,
			DisplayName:  "Bedrock",
			Region:       DefaultBedrockRegion,
			Model:        "anthropic.claude-3-haiku-20240307-v1:0",
			SystemPrompt: defaultAssistantPrompt,
			MaxTokens:    DefaultMaxTokens,
		},
	}
}

// Default returns a complete configuration with every default applied
func Default() *backendtypes.BackendConfig {
	cfg := &backendtypes.BackendConfig{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields. User-defined backends that share a name with a
// built-in one inherit the built-in fields they leave empty; a nil backend map selects the
// whole built-in table.
func ApplyDefaults(cfg *backendtypes.BackendConfig) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = DefaultVersion
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Preprocess.Command == "" {
		cfg.Preprocess.Command = DefaultPreprocessCmd
	}
	if cfg.Preprocess.Timeout == 0 {
		cfg.Preprocess.Timeout = DefaultPreprocessWait
	}

	if cfg.Forward.URL == "" {
		cfg.Forward.URL = DefaultForwardURL
	}

	if cfg.Image.BaseURL == "" {
		cfg.Image.BaseURL = DefaultImageBaseURL
	}
	if cfg.Image.Engine == "" {
		cfg.Image.Engine = DefaultImageEngine
	}
	if cfg.Image.APIKey == "" && cfg.Image.APIKeyEnv == "" {
		cfg.Image.APIKeyEnv = "STABILITY_API_KEY"
	}

	builtins := DefaultBackends()
	if cfg.Backends == nil {
		cfg.Backends = builtins
		return
	}
	for name, backend := range cfg.Backends {
		if backend == nil {
			backend = &backendtypes.ProviderConfig{}
			cfg.Backends[name] = backend
		}
		if builtin, ok := builtins[name]; ok {
			mergeBackend(backend, builtin)
		}
	}
}

func mergeBackend(dst, src *backendtypes.ProviderConfig) {
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if dst.BaseURL == "" {
		dst.BaseURL = src.BaseURL
	}
	if dst.APIKey == "" && dst.APIKeyEnv == "" {
		dst.APIKeyEnv = src.APIKeyEnv
	}
	if dst.Model == "" {
		dst.Model = src.Model
	}
	if dst.SystemPrompt == "" {
		dst.SystemPrompt = src.SystemPrompt
	}
	if dst.Region == "" {
		dst.Region = src.Region
	}
	if dst.MaxTokens == 0 {
		dst.MaxTokens = src.MaxTokens
	}
}
