package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/amishk599/jobstats/internal/filter"
	"github.com/amishk599/jobstats/internal/model"
)

// DefaultMaxPageSize is the largest page the search API serves.
const DefaultMaxPageSize = 100

// ErrNoLiveAds is the fallback reason when a live fetch succeeded but nothing
// survived truncation and filtering.
var ErrNoLiveAds = errors.New("no live ads left after filtering")

// Source tells callers where the ads in a Result came from.
type Source string

const (
	SourceLive   Source = "live"
	SourceSample Source = "sample"
)

// Options controls one fetch.
type Options struct {
	Limit     int
	UseSample bool
	SinceDays *int // nil disables the publish-date cutoff
}

// Result is the outcome of Fetch. Reason holds the cause when the sample set
// was substituted for live data; it is nil for live results and for an
// explicit sample request.
type Result struct {
	Ads    []model.Ad
	Source Source
	Reason error
}

// Fallback reports whether sample data was substituted for a live fetch.
func (r Result) Fallback() bool { return r.Reason != nil }

// Fetcher pages through a search source and applies the local filters.
type Fetcher struct {
	pages       model.PageFetcher
	maxPageSize int
	now         func() time.Time
	logger      *slog.Logger
}

// NewFetcher creates a Fetcher reading pages from pages. maxPageSize caps the
// page size; non-positive means DefaultMaxPageSize.
func NewFetcher(pages model.PageFetcher, maxPageSize int, logger *slog.Logger) *Fetcher {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &Fetcher{
		pages:       pages,
		maxPageSize: maxPageSize,
		now:         time.Now,
		logger:      logger,
	}
}

// Fetch returns up to opts.Limit ads. It never fails: a collection error or an
// empty filtered result is replaced by the sample set, and the cause is kept
// on Result.Reason.
func (f *Fetcher) Fetch(ctx context.Context, opts Options) Result {
	if opts.UseSample {
		return Result{Ads: Sample(opts.Limit), Source: SourceSample}
	}

	ads, err := f.collect(ctx, opts)
	return f.selectResult(opts.Limit, ads, err)
}

// selectResult is the single place where live data is swapped for samples.
func (f *Fetcher) selectResult(limit int, ads []model.Ad, err error) Result {
	switch {
	case err != nil:
		f.logger.Error("live fetch failed, using sample data", "error", err)
		return Result{Ads: Sample(limit), Source: SourceSample, Reason: err}
	case len(ads) == 0:
		f.logger.Warn("live fetch returned nothing, using sample data", "reason", ErrNoLiveAds)
		return Result{Ads: Sample(limit), Source: SourceSample, Reason: ErrNoLiveAds}
	default:
		return Result{Ads: ads, Source: SourceLive}
	}
}

// collect performs the network part of a fetch and applies truncation and
// filters. Errors are returned, never logged or swallowed here.
func (f *Fetcher) collect(ctx context.Context, opts Options) ([]model.Ad, error) {
	pageSize := max(1, min(f.maxPageSize, opts.Limit))

	var collected []model.Ad
	offset := 0
	for len(collected) < opts.Limit {
		ads, err := f.pages.FetchPage(ctx, model.Page{Offset: offset, Limit: pageSize})
		if err != nil {
			return nil, errors.Wrapf(err, "collecting ads (have %d of %d)", len(collected), opts.Limit)
		}
		if len(ads) == 0 {
			break
		}

		collected = append(collected, ads...)
		offset += pageSize

		f.logger.Debug("fetched page", "offset", offset-pageSize, "hits", len(ads), "collected", len(collected))

		if len(ads) < pageSize {
			break
		}
	}

	if len(collected) > opts.Limit {
		collected = collected[:opts.Limit]
	}

	keep := filter.All{}
	if opts.SinceDays != nil {
		since := filter.NewSinceFilter(f.now(), *opts.SinceDays)
		keep = append(keep, since)
		f.logger.Debug("applying date cutoff", "cutoff", since.Cutoff())
	}
	keep = append(keep, filter.HasIDFilter{})

	return filter.Apply(collected, keep), nil
}
