package config

import (
	"net/url"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for jobstats.
type Config struct {
	DatabasePath string
	Source       SourceConfig
	Retry        RetryConfig
	RateLimit    RateLimitConfig
	Fetch        FetchConfig
	Report       ReportConfig
}

// SourceConfig describes the remote search endpoint.
type SourceConfig struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration // per-attempt HTTP timeout
	MaxPageSize int
}

// RetryConfig controls page-level retries.
type RetryConfig struct {
	Attempts  int // total tries per page
	BaseDelay time.Duration
}

// RateLimitConfig paces page requests.
type RateLimitConfig struct {
	RequestsPerSecond float64 // 0 disables pacing
}

// FetchConfig holds the run defaults; CLI flags override them.
type FetchConfig struct {
	Limit     int
	UseSample bool
	SinceDays *int // nil disables the cutoff
}

// ReportConfig controls the report and browse views.
type ReportConfig struct {
	TopN                int
	TrendWindowDays     int
	ForecastHorizonDays int
}

const (
	defaultDatabasePath = "data/jobs.db"
	defaultBaseURL      = "https://jobsearch.api.jobtechdev.se/search"
	defaultUserAgent    = "jobstats/1.0 (+https://github.com/amishk599/jobstats)"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	DatabasePath string          `yaml:"database_path"`
	Source       rawSourceConfig `yaml:"source"`
	Retry        rawRetryConfig  `yaml:"retry"`
	RateLimit    struct {
		RequestsPerSecond *float64 `yaml:"requests_per_second"`
	} `yaml:"rate_limit"`
	Fetch struct {
		Limit     *int `yaml:"limit"`
		UseSample bool `yaml:"use_sample"`
		SinceDays *int `yaml:"since_days"`
	} `yaml:"fetch"`
	Report struct {
		TopN                *int `yaml:"top_n"`
		TrendWindowDays     *int `yaml:"trend_window_days"`
		ForecastHorizonDays *int `yaml:"forecast_horizon_days"`
	} `yaml:"report"`
}

type rawSourceConfig struct {
	BaseURL     string `yaml:"base_url"`
	UserAgent   string `yaml:"user_agent"`
	Timeout     string `yaml:"timeout"`
	MaxPageSize *int   `yaml:"max_page_size"`
}

type rawRetryConfig struct {
	Attempts  *int   `yaml:"attempts"`
	BaseDelay string `yaml:"base_delay"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	since := 1
	return &Config{
		DatabasePath: defaultDatabasePath,
		Source: SourceConfig{
			BaseURL:     defaultBaseURL,
			UserAgent:   defaultUserAgent,
			Timeout:     30 * time.Second,
			MaxPageSize: 100,
		},
		Retry: RetryConfig{
			Attempts:  2,
			BaseDelay: 500 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 5},
		Fetch: FetchConfig{
			Limit:     500,
			SinceDays: &since,
		},
		Report: ReportConfig{
			TopN:                10,
			TrendWindowDays:     7,
			ForecastHorizonDays: 7,
		},
	}
}

// LoadDotEnv loads variables from a .env file in the working directory, if
// present. Variables already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

// Load reads and parses the YAML config file at path, fills defaults for
// missing keys, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	cfg := Default()
	if raw.DatabasePath != "" {
		cfg.DatabasePath = raw.DatabasePath
	}

	if raw.Source.BaseURL != "" {
		cfg.Source.BaseURL = raw.Source.BaseURL
	}
	if raw.Source.UserAgent != "" {
		cfg.Source.UserAgent = raw.Source.UserAgent
	}
	if raw.Source.Timeout != "" {
		cfg.Source.Timeout, err = time.ParseDuration(raw.Source.Timeout)
		if err != nil {
			return nil, errors.Wrapf(err, "parse source.timeout %q", raw.Source.Timeout)
		}
	}
	if raw.Source.MaxPageSize != nil {
		cfg.Source.MaxPageSize = *raw.Source.MaxPageSize
	}

	if raw.Retry.Attempts != nil {
		cfg.Retry.Attempts = *raw.Retry.Attempts
	}
	if raw.Retry.BaseDelay != "" {
		cfg.Retry.BaseDelay, err = time.ParseDuration(raw.Retry.BaseDelay)
		if err != nil {
			return nil, errors.Wrapf(err, "parse retry.base_delay %q", raw.Retry.BaseDelay)
		}
	}

	if raw.RateLimit.RequestsPerSecond != nil {
		cfg.RateLimit.RequestsPerSecond = *raw.RateLimit.RequestsPerSecond
	}

	if raw.Fetch.Limit != nil {
		cfg.Fetch.Limit = *raw.Fetch.Limit
	}
	cfg.Fetch.UseSample = raw.Fetch.UseSample
	if raw.Fetch.SinceDays != nil {
		cfg.Fetch.SinceDays = SinceDays(*raw.Fetch.SinceDays)
	}

	if raw.Report.TopN != nil {
		cfg.Report.TopN = *raw.Report.TopN
	}
	if raw.Report.TrendWindowDays != nil {
		cfg.Report.TrendWindowDays = *raw.Report.TrendWindowDays
	}
	if raw.Report.ForecastHorizonDays != nil {
		cfg.Report.ForecastHorizonDays = *raw.Report.ForecastHorizonDays
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SinceDays converts a day count to the optional cutoff; negative disables it.
func SinceDays(days int) *int {
	if days < 0 {
		return nil
	}
	return &days
}

func validate(cfg *Config) error {
	if cfg.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}

	u, err := url.Parse(cfg.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Newf("source.base_url must be an absolute http(s) URL, got %q", cfg.Source.BaseURL)
	}
	if cfg.Source.Timeout <= 0 {
		return errors.Newf("source.timeout must be positive, got %v", cfg.Source.Timeout)
	}
	if cfg.Source.MaxPageSize < 1 || cfg.Source.MaxPageSize > 100 {
		return errors.Newf("source.max_page_size must be between 1 and 100, got %d", cfg.Source.MaxPageSize)
	}

	if cfg.Retry.Attempts < 1 {
		return errors.Newf("retry.attempts must be at least 1, got %d", cfg.Retry.Attempts)
	}
	if cfg.Retry.BaseDelay < 0 {
		return errors.Newf("retry.base_delay must not be negative, got %v", cfg.Retry.BaseDelay)
	}

	if cfg.RateLimit.RequestsPerSecond < 0 {
		return errors.Newf("rate_limit.requests_per_second must not be negative, got %v", cfg.RateLimit.RequestsPerSecond)
	}

	if cfg.Fetch.Limit < 1 {
		return errors.Newf("fetch.limit must be at least 1, got %d", cfg.Fetch.Limit)
	}

	if cfg.Report.TopN < 1 {
		return errors.Newf("report.top_n must be at least 1, got %d", cfg.Report.TopN)
	}
	if cfg.Report.TrendWindowDays < 2 {
		return errors.Newf("report.trend_window_days must be at least 2, got %d", cfg.Report.TrendWindowDays)
	}
	if cfg.Report.ForecastHorizonDays < 1 {
		return errors.Newf("report.forecast_horizon_days must be at least 1, got %d", cfg.Report.ForecastHorizonDays)
	}

	return nil
}
