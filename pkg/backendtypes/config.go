package backendtypes

import (
	"os"
	"time"

	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

// BackendConfig defines the configuration for the dispatch server
type BackendConfig struct {
	Server     ServerConfig               `yaml:"server"`
	Auth       AuthConfig                 `yaml:"auth"`
	Logging    LoggingConfig              `yaml:"logging"`
	CORS       CORSConfig                 `yaml:"cors"`
	Security   SecurityConfig             `yaml:"security"`
	Metrics    MetricsConfig              `yaml:"metrics"`
	Preprocess PreprocessConfig           `yaml:"preprocess"`
	Forward    ForwardConfig              `yaml:"forward"`
	Backends   map[string]*ProviderConfig `yaml:"backends"`
	Image      ImageConfig                `yaml:"image"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Version         string        `yaml:"version"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	Enabled     bool     `yaml:"enabled"`
	APIPassword string   `yaml:"api_password"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	PublicPaths []string `yaml:"public_paths"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// SecurityConfig controls the secure response headers applied to every route
type SecurityConfig struct {
	Disabled              bool   `yaml:"disabled"`
	IsDevelopment         bool   `yaml:"is_development"`
	ContentSecurityPolicy string `yaml:"content_security_policy"`
	ReferrerPolicy        string `yaml:"referrer_policy"`
}

type MetricsConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

// PreprocessConfig describes the external executable run by the preprocess-and-forward route.
// The serialized request is written to its stdin and its trimmed stdout becomes the upstream body.
type PreprocessConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Env     []string      `yaml:"env"`
	Timeout time.Duration `yaml:"timeout"`
}

// ForwardConfig describes the remote endpoint receiving preprocessed payloads
type ForwardConfig struct {
	URL       string            `yaml:"url"`
	Timeout   time.Duration     `yaml:"timeout"`
	UserAgent string            `yaml:"user_agent"` // static override; a synthetic one is generated per request when empty
	Headers   map[string]string `yaml:"headers"`
	Auth      ForwardAuthConfig `yaml:"auth"`
}

// ForwardAuthConfig enables bearer authentication towards the forward endpoint.
// A static token wins over client credentials.
type ForwardAuthConfig struct {
	Token           string   `yaml:"token"`
	TokenEnv        string   `yaml:"token_env"`
	TokenURL        string   `yaml:"token_url"`
	ClientID        string   `yaml:"client_id"`
	ClientSecret    string   `yaml:"client_secret"`
	ClientSecretEnv string   `yaml:"client_secret_env"`
	Scopes          []string `yaml:"scopes"`
}

// ResolveToken returns the static bearer token, if any
func (c ForwardAuthConfig) ResolveToken() string {
	return valueOrEnv(c.Token, c.TokenEnv)
}

// ResolveClientSecret returns the client secret, if any
func (c ForwardAuthConfig) ResolveClientSecret() string {
	return valueOrEnv(c.ClientSecret, c.ClientSecretEnv)
}

// ProviderConfig configures one named backend route
type ProviderConfig struct {
	Type              types.BackendType `yaml:"type"`
	Enabled           *bool             `yaml:"enabled,omitempty"`
	DisplayName       string            `yaml:"display_name,omitempty"`
	BaseURL           string            `yaml:"base_url,omitempty"`
	APIKey            string            `yaml:"api_key,omitempty"`
	APIKeyEnv         string            `yaml:"api_key_env,omitempty"`
	Model             string            `yaml:"model"`
	SystemPrompt      string            `yaml:"system_prompt"`
	MaxTokens         int               `yaml:"max_tokens,omitempty"`
	Region            string            `yaml:"region,omitempty"`
	AccessKeyID       string            `yaml:"access_key_id,omitempty"`
	SecretAccessKey   string            `yaml:"secret_access_key,omitempty"`
	SecretKeyEnv      string            `yaml:"secret_access_key_env,omitempty"`
	Timeout           time.Duration     `yaml:"timeout,omitempty"`
	RequestsPerMinute int               `yaml:"requests_per_minute,omitempty"`
}

// IsEnabled reports whether the backend should be registered; unset means enabled
func (c *ProviderConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ResolveAPIKey returns the literal key or, failing that, the value of APIKeyEnv
func (c *ProviderConfig) ResolveAPIKey() string {
	return valueOrEnv(c.APIKey, c.APIKeyEnv)
}

// ResolveSecretAccessKey returns the AWS secret for static Bedrock credentials, if any
func (c *ProviderConfig) ResolveSecretAccessKey() string {
	return valueOrEnv(c.SecretAccessKey, c.SecretKeyEnv)
}

// Label is the name used in client-facing error messages
func (c *ProviderConfig) Label(name string) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return name
}

// ImageConfig configures the text-to-image client
type ImageConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Engine    string        `yaml:"engine"`
	APIKey    string        `yaml:"api_key"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ResolveAPIKey returns the literal key or, failing that, the value of APIKeyEnv
func (c ImageConfig) ResolveAPIKey() string {
	return valueOrEnv(c.APIKey, c.APIKeyEnv)
}

func valueOrEnv(value, env string) string {
	if value != "" {
		return value
	}
	if env != "" {
		return os.Getenv(env)
	}
	return ""
}
