package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database_path: /tmp/stats/jobs.db
source:
  base_url: https://example.test/search
  user_agent: tester/2.0
  timeout: 10s
  max_page_size: 50
retry:
  attempts: 3
  base_delay: 250ms
rate_limit:
  requests_per_second: 2.5
fetch:
  limit: 120
  use_sample: true
  since_days: 3
report:
  top_n: 5
  trend_window_days: 14
  forecast_horizon_days: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/stats/jobs.db", cfg.DatabasePath)
	assert.Equal(t, "https://example.test/search", cfg.Source.BaseURL)
	assert.Equal(t, "tester/2.0", cfg.Source.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 50, cfg.Source.MaxPageSize)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 120, cfg.Fetch.Limit)
	assert.True(t, cfg.Fetch.UseSample)
	require.NotNil(t, cfg.Fetch.SinceDays)
	assert.Equal(t, 3, *cfg.Fetch.SinceDays)
	assert.Equal(t, ReportConfig{TopN: 5, TrendWindowDays: 14, ForecastHorizonDays: 3}, cfg.Report)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "data/jobs.db", cfg.DatabasePath)
	assert.Equal(t, 500, cfg.Fetch.Limit)
	assert.False(t, cfg.Fetch.UseSample)
	require.NotNil(t, cfg.Fetch.SinceDays)
	assert.Equal(t, 1, *cfg.Fetch.SinceDays)
	assert.Equal(t, 2, cfg.Retry.Attempts)
	assert.Equal(t, 100, cfg.Source.MaxPageSize)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.NoError(t, validate(cfg))
}

func TestLoad_NegativeSinceDaysDisablesCutoff(t *testing.T) {
	path := writeConfig(t, `
fetch:
  since_days: -1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Fetch.SinceDays)
}

func TestLoad_ZeroSinceDaysKeepsToday(t *testing.T) {
	path := writeConfig(t, `
fetch:
  since_days: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Fetch.SinceDays)
	assert.Equal(t, 0, *cfg.Fetch.SinceDays)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("JOBSTATS_TEST_DB", "/var/lib/jobstats/ads.db")
	path := writeConfig(t, `
database_path: ${JOBSTATS_TEST_DB}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/jobstats/ads.db", cfg.DatabasePath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "database_path: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
source:
  timeout: soon
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.timeout")
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"relative base url", "source:\n  base_url: /search\n", "source.base_url"},
		{"ftp base url", "source:\n  base_url: ftp://example.test\n", "source.base_url"},
		{"zero timeout", "source:\n  timeout: 0s\n", "source.timeout"},
		{"page size too large", "source:\n  max_page_size: 101\n", "source.max_page_size"},
		{"page size zero", "source:\n  max_page_size: 0\n", "source.max_page_size"},
		{"zero attempts", "retry:\n  attempts: 0\n", "retry.attempts"},
		{"negative delay", "retry:\n  base_delay: -1s\n", "retry.base_delay"},
		{"negative rate", "rate_limit:\n  requests_per_second: -1\n", "rate_limit.requests_per_second"},
		{"zero limit", "fetch:\n  limit: 0\n", "fetch.limit"},
		{"zero top", "report:\n  top_n: 0\n", "report.top_n"},
		{"one day window", "report:\n  trend_window_days: 1\n", "report.trend_window_days"},
		{"zero horizon", "report:\n  forecast_horizon_days: 0\n", "report.forecast_horizon_days"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSinceDays(t *testing.T) {
	assert.Nil(t, SinceDays(-3))
	require.NotNil(t, SinceDays(0))
	assert.Equal(t, 7, *SinceDays(7))
}
