package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

type countingBackend struct {
	calls int
}

func (b *countingBackend) Info() types.BackendInfo {
	return types.BackendInfo{Name: "xai", Type: types.BackendTypeOpenAI, Model: "grok-2-latest"}
}

func (b *countingBackend) Label() string { return "xAI" }

func (b *countingBackend) Complete(context.Context, string) (string, error) {
	b.calls++
	return "ok", nil
}

func TestWrap_Disabled(t *testing.T) {
	b := &countingBackend{}
	assert.Same(t, b, Wrap(b, 0))
	assert.Same(t, b, Wrap(b, -1))
}

func TestWrap_BurstThenWait(t *testing.T) {
	b := &countingBackend{}
	limited := Wrap(b, 2)

	assert.Equal(t, "xAI", limited.Label())
	assert.Equal(t, "grok-2-latest", limited.Info().Model)

	for i := 0; i < 2; i++ {
		reply, err := limited.Complete(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "ok", reply)
	}

	// The bucket is empty; the next token is 30s away.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := limited.Complete(ctx, "hi")
	require.Error(t, err)
	assert.Equal(t, 2, b.calls)

	var providerErr *types.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, types.ErrCodeRateLimit, providerErr.Code)
}

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(60)
	assert.Equal(t, 60, l.Burst())
	assert.InDelta(t, 1.0, float64(l.Limit()), 0.0001)
}
