package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobstats/internal/browse"
	"github.com/amishk599/jobstats/internal/config"
	"github.com/amishk599/jobstats/internal/fetcher"
	"github.com/amishk599/jobstats/internal/model"
	"github.com/amishk599/jobstats/internal/pipeline"
	"github.com/amishk599/jobstats/internal/report"
	"github.com/amishk599/jobstats/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, store and aggregate one batch of ads",
	Long: "One ingest pass: fetches up to --limit ads (falling back to built-in sample data when the " +
		"live source fails), stores them raw, and upserts the daily counts per county and occupation group.",
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 500, "maximum number of ads to fetch")
	cmd.Flags().Bool("sample", false, "use built-in sample ads instead of the live source")
	cmd.Flags().Int("since-days", 1, "keep only ads published within this many days (negative disables)")
	cmd.Flags().Bool("dry-run", false, "run the pass without writing to the database")
}

// fetchOptions merges config defaults with any flags the user set.
func fetchOptions(cmd *cobra.Command, cfg *config.Config) (fetcher.Options, error) {
	opts := fetcher.Options{
		Limit:     cfg.Fetch.Limit,
		UseSample: cfg.Fetch.UseSample,
		SinceDays: cfg.Fetch.SinceDays,
	}

	flags := cmd.Flags()
	if flags.Changed("limit") {
		limit, _ := flags.GetInt("limit")
		if limit < 1 {
			return opts, errors.Newf("--limit must be at least 1, got %d", limit)
		}
		opts.Limit = limit
	}
	if flags.Changed("sample") {
		opts.UseSample, _ = flags.GetBool("sample")
	}
	if flags.Changed("since-days") {
		days, _ := flags.GetInt("since-days")
		opts.SinceDays = config.SinceDays(days)
	}
	return opts, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	opts, err := fetchOptions(cmd, cfg)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var adStore model.AdStore
	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be written")
		adStore = store.NewNopStore()
	} else {
		adStore = store.NewSQLiteStore(cfg.DatabasePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A spinner and log lines on the same terminal garble each other, so the
	// spinner only shows when logs are at Info level.
	var sum pipeline.Summary
	if interactive() && !debug {
		p := pipeline.New(buildFetcher(cfg, discardLogger()), adStore, discardLogger())
		sum, err = browse.RunLoader(ctx, "Fetching and aggregating ads", func(ctx context.Context) (pipeline.Summary, error) {
			return p.Run(ctx, opts)
		})
		if err == nil {
			logFallback(logger, sum)
		}
	} else {
		p := pipeline.New(buildFetcher(cfg, logger), adStore, logger)
		sum, err = p.Run(ctx, opts)
	}
	if err != nil {
		logFailure(logger, "run failed", err)
	}

	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

// logFallback records why the live source was abandoned. The pipeline logs
// this itself except behind the spinner, where its logger is discarded.
func logFallback(logger *slog.Logger, sum pipeline.Summary) {
	if sum.FallbackReason == nil {
		return
	}
	logger.Warn("live fetch failed, used sample data", "error", sum.FallbackReason)
}

func printSummary(w io.Writer, sum pipeline.Summary) {
	if sum.FallbackReason != nil {
		fmt.Fprintf(w, "Live fetch unavailable (%v); used sample data.\n", sum.FallbackReason)
	}
	fmt.Fprintf(w, "Fetched %d ads from %s source, %d daily groups.\n", sum.Fetched, sum.Source, sum.Groups)
	if len(sum.Sample) == 0 {
		fmt.Fprintln(w, "Aggregate table is empty.")
		return
	}
	fmt.Fprintln(w, report.AggregateTable(sum.Sample).String())
	fmt.Fprintf(w, "Showing %d of %d aggregate rows.\n", len(sum.Sample), sum.TotalRows)
}
