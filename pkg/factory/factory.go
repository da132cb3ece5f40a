// Package factory builds the named backends of a configuration. Provider constructors are
// registered per backend type; every built backend gets the client-side rate limit it asks for.
package factory

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/dispatch"
	"github.com/aii-robotic-labs/http-privacy/pkg/providers/anthropic"
	"github.com/aii-robotic-labs/http-privacy/pkg/providers/bedrock"
	"github.com/aii-robotic-labs/http-privacy/pkg/providers/gemini"
	"github.com/aii-robotic-labs/http-privacy/pkg/providers/openai"
	"github.com/aii-robotic-labs/http-privacy/pkg/ratelimit"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

// Constructor creates one backend
type Constructor func(ctx context.Context, name string, cfg *backendtypes.ProviderConfig) (dispatch.Backend, error)

// ProviderFactory maps backend types to constructors
type ProviderFactory struct {
	constructors map[types.BackendType]Constructor
	mutex        sync.RWMutex
}

// NewProviderFactory creates an empty factory
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{constructors: make(map[types.BackendType]Constructor)}
}

// RegisterProvider registers the constructor for a backend type, replacing any previous one
func (f *ProviderFactory) RegisterProvider(backendType types.BackendType, constructor Constructor) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.constructors[backendType] = constructor
}

// CreateProvider builds one backend and applies its rate limit
func (f *ProviderFactory) CreateProvider(ctx context.Context, name string, cfg *backendtypes.ProviderConfig) (dispatch.Backend, error) {
	f.mutex.RLock()
	constructor, exists := f.constructors[cfg.Type]
	f.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("backend %q: provider type %q not registered", name, cfg.Type)
	}

	backend, err := constructor(ctx, name, cfg)
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", name, err)
	}
	return ratelimit.Wrap(backend, cfg.RequestsPerMinute), nil
}

// GetSupportedProviders returns the registered backend types
func (f *ProviderFactory) GetSupportedProviders() []types.BackendType {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	supported := make([]types.BackendType, 0, len(f.constructors))
	for t := range f.constructors {
		supported = append(supported, t)
	}
	sort.Slice(supported, func(i, j int) bool { return supported[i] < supported[j] })
	return supported
}

// BuildBackends creates every enabled backend concurrently and returns them in name order.
// The first constructor error cancels the others.
func (f *ProviderFactory) BuildBackends(ctx context.Context, backends map[string]*backendtypes.ProviderConfig) ([]dispatch.Backend, error) {
	names := make([]string, 0, len(backends))
	for name, cfg := range backends {
		if cfg != nil && cfg.IsEnabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	built := make([]dispatch.Backend, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			backend, err := f.CreateProvider(gctx, name, backends[name])
			if err != nil {
				return err
			}
			built[i] = backend
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return built, nil
}

// RegisterDefaultProviders registers the built-in provider implementations. httpClient is shared
// by the SDK-based providers and may be nil.
func RegisterDefaultProviders(f *ProviderFactory, httpClient *http.Client) {
	var transport http.RoundTripper
	if httpClient != nil {
		transport = httpClient.Transport
	}

	f.RegisterProvider(types.BackendTypeOpenAI, func(_ context.Context, name string, cfg *backendtypes.ProviderConfig) (dispatch.Backend, error) {
		return openai.New(name, cfg, httpClient), nil
	})
	f.RegisterProvider(types.BackendTypeAnthropic, func(_ context.Context, name string, cfg *backendtypes.ProviderConfig) (dispatch.Backend, error) {
		return anthropic.New(name, cfg, httpClient), nil
	})
	f.RegisterProvider(types.BackendTypeGemini, func(_ context.Context, name string, cfg *backendtypes.ProviderConfig) (dispatch.Backend, error) {
		return gemini.New(name, cfg, transport), nil
	})
	f.RegisterProvider(types.BackendTypeBedrock, func(ctx context.Context, name string, cfg *backendtypes.ProviderConfig) (dispatch.Backend, error) {
		return bedrock.New(ctx, name, cfg)
	})
}
