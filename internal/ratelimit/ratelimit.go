package ratelimit

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/amishk599/jobstats/internal/model"
)

// NewLimiter returns a token bucket allowing rps page requests per second with
// a burst of one. A non-positive rps disables pacing.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// RateLimitedFetcher is a decorator that waits on a shared limiter before
// delegating each page request to the wrapped PageFetcher.
type RateLimitedFetcher struct {
	inner   model.PageFetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher wraps a PageFetcher with request pacing.
func NewRateLimitedFetcher(inner model.PageFetcher, limiter *rate.Limiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
	}
}

// FetchPage waits for the limiter, then delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) FetchPage(ctx context.Context, page model.Page) ([]model.Ad, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "rate limiter wait for offset %d", page.Offset)
	}
	return f.inner.FetchPage(ctx, page)
}

// Interval reports the steady-state gap between requests, zero when unlimited.
func Interval(l *rate.Limiter) time.Duration {
	if l.Limit() == rate.Inf || l.Limit() <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(l.Limit()))
}
