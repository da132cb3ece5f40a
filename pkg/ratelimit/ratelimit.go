// Package ratelimit applies a client-side requests-per-minute budget to a backend. Callers wait
// for a token instead of being rejected; a cancelled wait fails the call.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/aii-robotic-labs/http-privacy/pkg/dispatch"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

// Limited wraps a backend with a token bucket
type Limited struct {
	dispatch.Backend
	limiter *rate.Limiter
}

// NewLimiter returns a token bucket refilling rpm tokens per minute with a burst of rpm
func NewLimiter(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

// Wrap limits backend to rpm requests per minute. rpm <= 0 returns backend unchanged.
func Wrap(backend dispatch.Backend, rpm int) dispatch.Backend {
	if rpm <= 0 {
		return backend
	}
	return &Limited{Backend: backend, limiter: NewLimiter(rpm)}
}

// Complete waits for a token, then calls the wrapped backend
func (l *Limited) Complete(ctx context.Context, message string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", types.NewProviderError(l.Info().Name, types.ErrCodeRateLimit, "client-side rate limit wait failed").
			WithOriginalErr(fmt.Errorf("limiter: %w", err))
	}
	return l.Backend.Complete(ctx, message)
}
