package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobstats/internal/adapter"
	"github.com/amishk599/jobstats/internal/config"
	"github.com/amishk599/jobstats/internal/fetcher"
	"github.com/amishk599/jobstats/internal/model"
	"github.com/amishk599/jobstats/internal/ratelimit"
	"github.com/amishk599/jobstats/internal/retry"
)

const (
	configEnvVar      = "JOBSTATS_CONFIG"
	defaultConfigPath = "config.yaml"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobstats",
	Short: "Daily job-ad statistics",
	Long:  "jobstats pulls job ads from the public search API, stores them, and keeps daily counts per county and occupation group.",
	// Without a subcommand, do one ingest pass so a cron entry can invoke the binary directly.
	RunE:         runRun,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+configEnvVar+" env var or ./"+defaultConfigPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	addRunFlags(rootCmd)
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSTATS_CONFIG env var > "./config.yaml".
// Only the implicit default may be missing, in which case built-in defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	if path == "" {
		path = os.Getenv(configEnvVar)
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
			return config.Default(), nil
		}
		path = defaultConfigPath
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mustLoadConfig loads the config or logs and exits.
func mustLoadConfig(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		"database_path", cfg.DatabasePath,
		"base_url", cfg.Source.BaseURL,
		"limit", cfg.Fetch.Limit,
		"retry_attempts", cfg.Retry.Attempts,
		"requests_per_second", cfg.RateLimit.RequestsPerSecond,
	)
	return cfg
}

// buildFetcher wires the live source: search adapter, paced by the rate
// limiter, with each paced call retried.
func buildFetcher(cfg *config.Config, logger *slog.Logger) *fetcher.Fetcher {
	httpClient := &http.Client{Timeout: cfg.Source.Timeout}

	var pages model.PageFetcher = adapter.NewJobSearchAdapter(cfg.Source.BaseURL, cfg.Source.UserAgent, httpClient)
	limiter := ratelimit.NewLimiter(cfg.RateLimit.RequestsPerSecond)
	pages = ratelimit.NewRateLimitedFetcher(pages, limiter)
	// A server's Retry-After may not stall the pass longer than one request could.
	pages = retry.NewRetryFetcher(pages, cfg.Retry.Attempts, cfg.Retry.BaseDelay, logger).WithMaxDelay(cfg.Source.Timeout)
	logger.Debug("fetcher configured", "min_interval", ratelimit.Interval(limiter).String())

	return fetcher.NewFetcher(pages, cfg.Source.MaxPageSize, logger)
}

// logFailure logs err with any hints attached to it and exits.
func logFailure(logger *slog.Logger, msg string, err error) {
	attrs := []any{"error", err}
	if hint := errors.FlattenHints(err); hint != "" {
		attrs = append(attrs, "hint", hint)
	}
	logger.Error(msg, attrs...)
	os.Exit(1)
}

// interactive reports whether stdout is a terminal.
func interactive() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
