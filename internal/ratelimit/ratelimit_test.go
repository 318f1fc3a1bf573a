package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/jobstats/internal/model"
)

type countingFetcher struct {
	calls int
}

func (f *countingFetcher) FetchPage(_ context.Context, _ model.Page) ([]model.Ad, error) {
	f.calls++
	return nil, nil
}

func TestFetchPage_EnforcesInterval(t *testing.T) {
	inner := &countingFetcher{}
	f := NewRateLimitedFetcher(inner, NewLimiter(10)) // 100ms between requests
	ctx := context.Background()

	// First call consumes the initial token.
	if _, err := f.FetchPage(ctx, model.Page{Limit: 1}); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	start := time.Now()
	if _, err := f.FetchPage(ctx, model.Page{Offset: 1, Limit: 1}); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	elapsed := time.Since(start)

	// Allow 20ms of timer jitter.
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestFetchPage_UnlimitedDoesNotBlock(t *testing.T) {
	inner := &countingFetcher{}
	f := NewRateLimitedFetcher(inner, NewLimiter(0))
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := f.FetchPage(ctx, model.Page{Offset: i, Limit: 1}); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant fetches, got %v", elapsed)
	}
}

func TestFetchPage_ContextCancellation(t *testing.T) {
	inner := &countingFetcher{}
	f := NewRateLimitedFetcher(inner, NewLimiter(0.2)) // 5s between requests

	if _, err := f.FetchPage(context.Background(), model.Page{Limit: 1}); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.FetchPage(ctx, model.Page{Offset: 1, Limit: 1})
	if err == nil {
		t.Fatal("expected error from cancelled wait, got nil")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (second request must not go out)", inner.calls)
	}
}

func TestInterval(t *testing.T) {
	if got := Interval(NewLimiter(4)); got != 250*time.Millisecond {
		t.Errorf("Interval(4 rps) = %v, want 250ms", got)
	}
	if got := Interval(NewLimiter(0)); got != 0 {
		t.Errorf("Interval(unlimited) = %v, want 0", got)
	}
}
