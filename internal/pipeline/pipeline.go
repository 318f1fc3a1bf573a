package pipeline

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/amishk599/jobstats/internal/fetcher"
	"github.com/amishk599/jobstats/internal/model"
	"github.com/amishk599/jobstats/internal/transform"
)

// SampleSize is how many aggregate rows a run reports back.
const SampleSize = 25

// AdSource yields ads for a run. *fetcher.Fetcher is the production source.
type AdSource interface {
	Fetch(ctx context.Context, opts fetcher.Options) fetcher.Result
}

// Summary describes one completed run.
type Summary struct {
	Source         fetcher.Source
	FallbackReason error
	Fetched        int
	Groups         int
	TotalRows      int                    // rows in the aggregate table after the run
	Sample         []model.DailyAggregate // first SampleSize rows, ordered by key
}

// Pipeline owns one full ingest pass:
// ensure schema → fetch → write raw → normalize → aggregate → write aggregate.
type Pipeline struct {
	source AdSource
	store  model.AdStore
	logger *slog.Logger
}

// New creates a pipeline wired with its source and store.
func New(source AdSource, store model.AdStore, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		source: source,
		store:  store,
		logger: logger,
	}
}

// Run executes the pass. Fetch problems never surface here (the source falls
// back to sample data); any store failure stops the run and is returned.
func (p *Pipeline) Run(ctx context.Context, opts fetcher.Options) (Summary, error) {
	if err := p.store.EnsureSchema(ctx); err != nil {
		return Summary{}, errors.Wrap(err, "run")
	}

	res := p.source.Fetch(ctx, opts)
	sum := Summary{
		Source:         res.Source,
		FallbackReason: res.Reason,
		Fetched:        len(res.Ads),
	}
	p.logger.Info("fetched ads", "count", len(res.Ads), "source", res.Source, "limit", opts.Limit)

	if err := p.store.WriteRaw(ctx, res.Ads); err != nil {
		return sum, errors.Wrap(err, "run")
	}

	groups := transform.Aggregate(transform.Normalize(res.Ads))
	sum.Groups = len(groups)

	if err := p.store.WriteAggregate(ctx, groups); err != nil {
		return sum, errors.Wrap(err, "run")
	}

	all, err := p.store.Aggregates(ctx)
	if err != nil {
		return sum, errors.Wrap(err, "run")
	}
	sum.TotalRows = len(all)
	sum.Sample = all[:min(SampleSize, len(all))]

	p.logger.Info("run complete",
		"source", sum.Source,
		"fetched", sum.Fetched,
		"groups", sum.Groups,
		"agg_rows", sum.TotalRows,
	)
	return sum, nil
}
