// Package ratelimit wraps an inference gateway with a shared token bucket so
// concurrent stages stay under a provider's request quota.
package ratelimit

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driven"
)

// Ensure Gateway implements the interface.
var _ driven.InferenceGateway = (*Gateway)(nil)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit. Zero or less disables limiting.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size (default: ceil of RequestsPerSecond, at least 1).
	BurstSize int
}

// Gateway delays Generate calls so they never exceed the configured rate.
// Ping and Close pass straight through.
type Gateway struct {
	next    driven.InferenceGateway
	limiter *rate.Limiter
}

// Wrap returns next unchanged when limiting is disabled.
func Wrap(next driven.InferenceGateway, cfg Config) driven.InferenceGateway {
	if cfg.RequestsPerSecond <= 0 {
		return next
	}
	return New(next, cfg)
}

// New creates a rate limited gateway.
func New(next driven.InferenceGateway, cfg Config) *Gateway {
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Gateway{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Generate waits for a token, then forwards to the wrapped gateway.
func (g *Gateway) Generate(ctx context.Context, prompt, model string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		// The wait would outlast the caller's deadline.
		return "", fmt.Errorf("%w: rate limit: %w", domain.ErrTimeout, err)
	}
	return g.next.Generate(ctx, prompt, model)
}

// ModelName returns the wrapped gateway's model.
func (g *Gateway) ModelName() string {
	return g.next.ModelName()
}

// Ping forwards to the wrapped gateway without consuming a token.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

// Close closes the wrapped gateway.
func (g *Gateway) Close() error {
	return g.next.Close()
}
