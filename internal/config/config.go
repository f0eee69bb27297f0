// Package config loads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tournament-radar/pokerfans-events/internal/logger"
)

// Defaults used when the environment does not override them.
const (
	DefaultBaseURL  = "https://pokerfans.jp/"
	DefaultLocation = "東京都"
	DefaultTimezone = "Asia/Tokyo"
	DefaultDataDir  = "~/.local/share/pokerfans-events"
	DefaultWorkers  = 3
)

// Range is a closed [Min, Max] duration interval used for jittered delays.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Config holds every tunable of the fetch pipeline.
type Config struct {
	BaseURL        string
	Location       string
	Timezone       *time.Location
	Workers        int
	ListDelay      Range
	DetailDelay    Range
	BatchPause     time.Duration
	FirstPagePause time.Duration
	Timeout        time.Duration
	LogLevel       logger.Level
	DataDir        string
}

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Location:       DefaultLocation,
		Timezone:       tokyo(),
		Workers:        DefaultWorkers,
		ListDelay:      Range{Min: 5 * time.Second, Max: 10 * time.Second},
		DetailDelay:    Range{Min: 3 * time.Second, Max: 7 * time.Second},
		BatchPause:     2 * time.Second,
		FirstPagePause: 1 * time.Second,
		Timeout:        30 * time.Second,
		LogLevel:       logger.LevelInfo,
		DataDir:        DefaultDataDir,
	}
}

// Load reads a .env file if present and then applies POKERFANS_* variables
// on top of Default. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if v := getenv("POKERFANS_BASE_URL"); v != "" {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return nil, fmt.Errorf("POKERFANS_BASE_URL must be an http(s) URL, got %q", v)
		}
		cfg.BaseURL = v
	}
	if v := getenv("POKERFANS_LOCATION"); v != "" {
		cfg.Location = v
	}
	if v := getenv("POKERFANS_TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POKERFANS_TIMEZONE: %w", err)
		}
		cfg.Timezone = loc
	}
	if v := getenv("POKERFANS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POKERFANS_WORKERS: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("POKERFANS_WORKERS must be at least 1, got %d", n)
		}
		cfg.Workers = n
	}

	var err error
	if cfg.ListDelay, err = rangeVar(getenv, "POKERFANS_LIST_DELAY", cfg.ListDelay); err != nil {
		return nil, err
	}
	if cfg.DetailDelay, err = rangeVar(getenv, "POKERFANS_DETAIL_DELAY", cfg.DetailDelay); err != nil {
		return nil, err
	}
	if cfg.BatchPause, err = durationVar(getenv, "POKERFANS_BATCH_PAUSE", cfg.BatchPause); err != nil {
		return nil, err
	}
	if cfg.FirstPagePause, err = durationVar(getenv, "POKERFANS_FIRST_PAGE_PAUSE", cfg.FirstPagePause); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = durationVar(getenv, "POKERFANS_TIMEOUT", cfg.Timeout); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("POKERFANS_TIMEOUT must be positive")
	}

	if v := getenv("POKERFANS_LOG_LEVEL"); v != "" {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POKERFANS_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	if v := getenv("POKERFANS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	return cfg, nil
}

// ResolveDataDir expands a leading ~/ in the data directory.
func (c *Config) ResolveDataDir() (string, error) {
	if !strings.HasPrefix(c.DataDir, "~/") {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, c.DataDir[2:]), nil
}

func durationVar(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", name, v)
	}
	return d, nil
}

// rangeVar parses "5s-10s" or a single duration meaning a fixed delay.
func rangeVar(getenv func(string) string, name string, def Range) (Range, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	r, err := ParseRange(v)
	if err != nil {
		return Range{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return r, nil
}

// ParseRange parses "MIN-MAX" (e.g. "5s-10s") or a single duration.
func ParseRange(s string) (Range, error) {
	lo, hi, found := strings.Cut(strings.TrimSpace(s), "-")
	low, err := time.ParseDuration(strings.TrimSpace(lo))
	if err != nil {
		return Range{}, err
	}
	high := low
	if found {
		if high, err = time.ParseDuration(strings.TrimSpace(hi)); err != nil {
			return Range{}, err
		}
	}
	if low < 0 || high < low {
		return Range{}, fmt.Errorf("range %q must satisfy 0 <= min <= max", s)
	}
	return Range{Min: low, Max: high}, nil
}

// tokyo loads Asia/Tokyo, falling back to a fixed UTC+9 zone when the system
// has no tz database. Japan has no daylight saving time.
func tokyo() *time.Location {
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}
