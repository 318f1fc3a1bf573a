package retry

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/amishk599/jobstats/internal/model"
)

// RetryFetcher is a decorator that retries a failed page request with
// exponential backoff and jitter before giving up.
type RetryFetcher struct {
	inner     model.PageFetcher
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	logger    *slog.Logger
}

// NewRetryFetcher wraps a PageFetcher with retry logic.
// attempts is the total number of tries per page (minimum 1).
// baseDelay is the pause before the second try, doubled on each later one.
func NewRetryFetcher(inner model.PageFetcher, attempts int, baseDelay time.Duration, logger *slog.Logger) *RetryFetcher {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryFetcher{
		inner:     inner,
		attempts:  attempts,
		baseDelay: baseDelay,
		logger:    logger,
	}
}

// WithMaxDelay caps every pause between attempts, including one asked for
// by the server's Retry-After. Zero leaves pauses uncapped.
func (f *RetryFetcher) WithMaxDelay(d time.Duration) *RetryFetcher {
	f.maxDelay = d
	return f
}

// FetchPage requests the page, retrying any failure. The last error is
// returned once every attempt has failed.
func (f *RetryFetcher) FetchPage(ctx context.Context, page model.Page) ([]model.Ad, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			delay := f.backoffDelay(attempt-1, lastErr)

			f.logger.Warn("retrying page after error",
				"offset", page.Offset,
				"attempt", attempt,
				"attempts", f.attempts,
				"delay", delay,
				"error", lastErr,
			)

			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "retry cancelled")
			case <-time.After(delay):
			}
		}

		ads, err := f.inner.FetchPage(ctx, page)
		if err == nil {
			return ads, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "retry cancelled")
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, errors.Wrapf(lastErr, "page at offset %d failed after %d attempts", page.Offset, f.attempts)
}

// backoffDelay computes the delay before retry n with ±30% jitter.
// A Retry-After from the server takes precedence. Both are held to maxDelay.
func (f *RetryFetcher) backoffDelay(n int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return f.capped(httpErr.RetryAfter)
	}

	delay := f.baseDelay
	for i := 1; i < n; i++ {
		delay *= 2
	}
	if delay <= 0 {
		return 0
	}

	jitter := float64(delay) * 0.3
	return f.capped(time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter))
}

func (f *RetryFetcher) capped(d time.Duration) time.Duration {
	if f.maxDelay > 0 && d > f.maxDelay {
		return f.maxDelay
	}
	return d
}

// isRetryable reports whether err deserves another attempt. Every failure
// does, HTTP 4xx included, except a cancelled context.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
