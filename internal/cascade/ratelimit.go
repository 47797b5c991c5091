package cascade

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	backend Backend
	limiter *rate.Limiter
}

// RateLimited skips the wrapped backend with a quota failure, without a remote
// call, whenever the local limiter has no token available.
func RateLimited(backend Backend, limiter *rate.Limiter) Backend {
	if limiter == nil {
		return backend
	}
	return &rateLimited{backend: backend, limiter: limiter}
}

// PerMinute builds a limiter allowing n calls per minute with a burst of one.
// Zero or negative n disables limiting.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(n)/60), 1)
}

func (r *rateLimited) Name() string { return r.backend.Name() }

func (r *rateLimited) Invoke(ctx context.Context, in Input) (string, error) {
	if !r.limiter.Allow() {
		return "", fmt.Errorf("local rate limit reached: %w", ErrQuota)
	}
	return r.backend.Invoke(ctx, in)
}
