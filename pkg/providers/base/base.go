// Package base holds the identity shared by every provider implementation.
package base

import (
	"time"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

// DefaultTimeout bounds a provider call when the backend sets no timeout
const DefaultTimeout = 60 * time.Second

// Provider carries the fields every backend exposes to the dispatch facade
type Provider struct {
	name  string
	label string
	info  types.BackendInfo

	SystemPrompt string
	MaxTokens    int
	Timeout      time.Duration
}

// New builds the shared provider identity from a backend's configuration
func New(name string, cfg *backendtypes.ProviderConfig) Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return Provider{
		name:         name,
		label:        cfg.Label(name),
		info:         types.BackendInfo{Name: name, Type: cfg.Type, Model: cfg.Model},
		SystemPrompt: cfg.SystemPrompt,
		MaxTokens:    cfg.MaxTokens,
		Timeout:      timeout,
	}
}

// Info describes the backend
func (p Provider) Info() types.BackendInfo {
	return p.info
}

// Label names the backend in client-facing errors
func (p Provider) Label() string {
	return p.label
}

// Name is the route name of the backend
func (p Provider) Name() string {
	return p.name
}

// Model is the fixed model identifier sent with every request
func (p Provider) Model() string {
	return p.info.Model
}

// MaxTokensOr returns the configured token limit or def when unset
func (p Provider) MaxTokensOr(def int) int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return def
}

// Failure wraps a provider error with the backend name and operation
func (p Provider) Failure(operation string, err error) *types.ProviderError {
	return types.NewProviderError(p.name, types.ErrCodeUnknown, "request failed").
		WithOperation(operation).
		WithOriginalErr(err)
}
