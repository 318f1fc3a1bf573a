package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobstats/internal/browse"
	"github.com/amishk599/jobstats/internal/model"
	"github.com/amishk599/jobstats/internal/report"
	"github.com/amishk599/jobstats/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored statistics interactively (TUI)",
	Long:  "Loads the aggregate table and opens a split-pane view: report sections on the left, the selected table on the right.",
	RunE:  runBrowse,
}

func init() {
	addReportFlags(browseCmd)
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	opts, err := reportOptions(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlStore := store.NewSQLiteStore(cfg.DatabasePath)
	rows, err := browse.RunLoader(ctx, "Loading aggregates", func(ctx context.Context) ([]model.DailyAggregate, error) {
		return loadAggregates(ctx, sqlStore)
	})
	if err != nil {
		logFailure(logger, "read aggregates failed", err)
	}

	return browse.Run(browseSections(rows, opts))
}

// browseSections lists the raw aggregate table first, then every report view.
func browseSections(rows []model.DailyAggregate, opts report.Options) []report.Section {
	if len(rows) == 0 {
		return nil
	}
	sections := []report.Section{{Title: "Aggregate rows", Table: report.AggregateTable(rows).String()}}
	return append(sections, report.New(rows).Sections(opts, report.MeanForecaster{})...)
}
