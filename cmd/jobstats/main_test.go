package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobstats/internal/config"
	"github.com/amishk599/jobstats/internal/fetcher"
	"github.com/amishk599/jobstats/internal/model"
	"github.com/amishk599/jobstats/internal/pipeline"
	"github.com/amishk599/jobstats/internal/report"
)

func newRunFlagsCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	addReportFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestFetchOptions_DefaultsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Fetch.Limit = 42
	cfg.Fetch.UseSample = true

	opts, err := fetchOptions(newRunFlagsCmd(t), cfg)
	require.NoError(t, err)

	assert.Equal(t, 42, opts.Limit)
	assert.True(t, opts.UseSample)
	require.NotNil(t, opts.SinceDays)
	assert.Equal(t, 1, *opts.SinceDays)
}

func TestFetchOptions_FlagsOverride(t *testing.T) {
	opts, err := fetchOptions(newRunFlagsCmd(t, "--limit", "7", "--sample", "--since-days", "-1"), config.Default())
	require.NoError(t, err)

	assert.Equal(t, 7, opts.Limit)
	assert.True(t, opts.UseSample)
	assert.Nil(t, opts.SinceDays, "negative disables the cutoff")
}

func TestFetchOptions_RejectsZeroLimit(t *testing.T) {
	_, err := fetchOptions(newRunFlagsCmd(t, "--limit", "0"), config.Default())
	assert.Error(t, err)
}

func TestReportOptions(t *testing.T) {
	opts, err := reportOptions(newRunFlagsCmd(t, "--top", "3"), config.Default())
	require.NoError(t, err)
	assert.Equal(t, report.Options{TopN: 3, Window: 7, Horizon: 7}, opts)

	_, err = reportOptions(newRunFlagsCmd(t, "--window", "1"), config.Default())
	assert.Error(t, err)
	_, err = reportOptions(newRunFlagsCmd(t, "--horizon", "0"), config.Default())
	assert.Error(t, err)
}

func TestLoadConfig_MissingDefaultUsesBuiltins(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(configEnvVar, "")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := loadConfig("nope.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_EnvVarPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  limit: 9\n"), 0644))
	t.Setenv(configEnvVar, path)

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Fetch.Limit)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, pipeline.Summary{
		Source:         fetcher.SourceSample,
		FallbackReason: errors.New("HTTP 503"),
		Fetched:        3,
		Groups:         2,
		TotalRows:      2,
		Sample: []model.DailyAggregate{
			{Date: model.Str("2025-09-01"), County: model.Str("Stockholms län"), OccupationGroup: model.Str("Data/IT"), AdCount: 2},
			{Date: model.Str("2025-09-01"), AdCount: 1},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Live fetch unavailable (HTTP 503)")
	assert.Contains(t, out, "Fetched 3 ads from sample source, 2 daily groups.")
	assert.Contains(t, out, "Stockholms län")
	assert.Contains(t, out, "Showing 2 of 2 aggregate rows.")
}

func TestLogFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logFallback(logger, pipeline.Summary{Source: fetcher.SourceLive})
	assert.Empty(t, buf.String(), "nothing to report without a fallback")

	logFallback(logger, pipeline.Summary{Source: fetcher.SourceSample, FallbackReason: errors.New("HTTP 503")})
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "live fetch failed, used sample data")
	assert.Contains(t, out, "HTTP 503")
}

func TestBrowseSections(t *testing.T) {
	assert.Nil(t, browseSections(nil, report.Options{TopN: 5, Window: 7, Horizon: 7}))

	rows := []model.DailyAggregate{{Date: model.Str("2025-09-01"), County: model.Str("Skåne län"), AdCount: 4}}
	sections := browseSections(rows, report.Options{TopN: 5, Window: 7, Horizon: 7})
	require.NotEmpty(t, sections)
	assert.Equal(t, "Aggregate rows", sections[0].Title)
	assert.Contains(t, sections[0].Table, "Skåne län")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
