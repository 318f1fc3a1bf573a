package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobstats/internal/config"
	"github.com/amishk599/jobstats/internal/model"
	"github.com/amishk599/jobstats/internal/report"
	"github.com/amishk599/jobstats/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print totals, rankings, trends and a forecast",
	Long:  "Reads the aggregate table and prints daily totals, top counties and occupation groups, the trend over the last --window days, and a --horizon day forecast.",
	RunE:  runReport,
}

func init() {
	addReportFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().Int("top", 10, "rows per ranking")
	cmd.Flags().Int("window", 7, "trend window in days")
	cmd.Flags().Int("horizon", 7, "forecast horizon in days")
}

// reportOptions merges config defaults with any flags the user set.
func reportOptions(cmd *cobra.Command, cfg *config.Config) (report.Options, error) {
	opts := report.Options{
		TopN:    cfg.Report.TopN,
		Window:  cfg.Report.TrendWindowDays,
		Horizon: cfg.Report.ForecastHorizonDays,
	}

	flags := cmd.Flags()
	if flags.Changed("top") {
		opts.TopN, _ = flags.GetInt("top")
	}
	if flags.Changed("window") {
		opts.Window, _ = flags.GetInt("window")
	}
	if flags.Changed("horizon") {
		opts.Horizon, _ = flags.GetInt("horizon")
	}

	switch {
	case opts.TopN < 1:
		return opts, errors.Newf("--top must be at least 1, got %d", opts.TopN)
	case opts.Window < 2:
		return opts, errors.Newf("--window must be at least 2, got %d", opts.Window)
	case opts.Horizon < 1:
		return opts, errors.Newf("--horizon must be at least 1, got %d", opts.Horizon)
	}
	return opts, nil
}

// loadAggregates reads every aggregate row, creating the schema first so a
// fresh database reads as empty instead of failing.
func loadAggregates(ctx context.Context, sqlStore *store.SQLiteStore) ([]model.DailyAggregate, error) {
	if err := sqlStore.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return sqlStore.Aggregates(ctx)
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	opts, err := reportOptions(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rows, err := loadAggregates(ctx, store.NewSQLiteStore(cfg.DatabasePath))
	if err != nil {
		logFailure(logger, "read aggregates failed", err)
	}
	logger.Debug("aggregates loaded", "rows", len(rows))

	return report.New(rows).Render(cmd.OutOrStdout(), opts, report.MeanForecaster{})
}
