package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tournament-radar/pokerfans-events/internal/logger"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Location != DefaultLocation {
		t.Errorf("Location = %q, want %q", cfg.Location, DefaultLocation)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.ListDelay != (Range{5 * time.Second, 10 * time.Second}) {
		t.Errorf("ListDelay = %+v", cfg.ListDelay)
	}
	if cfg.DetailDelay != (Range{3 * time.Second, 7 * time.Second}) {
		t.Errorf("DetailDelay = %+v", cfg.DetailDelay)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.LogLevel != logger.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}

	// Whatever zone was loaded, Tokyo is UTC+9 year round.
	_, offset := time.Date(2026, 7, 1, 0, 0, 0, 0, cfg.Timezone).Zone()
	if offset != 9*60*60 {
		t.Errorf("timezone offset = %d, want %d", offset, 9*60*60)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"POKERFANS_BASE_URL":    "http://localhost:8080/",
		"POKERFANS_LOCATION":    "大阪府",
		"POKERFANS_TIMEZONE":    "UTC",
		"POKERFANS_WORKERS":     "5",
		"POKERFANS_LIST_DELAY":  "0s",
		"POKERFANS_BATCH_PAUSE": "500ms",
		"POKERFANS_LOG_LEVEL":   "debug",
		"POKERFANS_DATA_DIR":    "/tmp/pokerfans",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}

	if cfg.BaseURL != "http://localhost:8080/" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Location != "大阪府" {
		t.Errorf("Location = %q", cfg.Location)
	}
	if cfg.Timezone.String() != "UTC" {
		t.Errorf("Timezone = %v", cfg.Timezone)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if cfg.ListDelay != (Range{}) {
		t.Errorf("ListDelay = %+v, want zero", cfg.ListDelay)
	}
	if cfg.BatchPause != 500*time.Millisecond {
		t.Errorf("BatchPause = %v", cfg.BatchPause)
	}
	if cfg.LogLevel != logger.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.DataDir != "/tmp/pokerfans" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad url", map[string]string{"POKERFANS_BASE_URL": "pokerfans.jp"}, "POKERFANS_BASE_URL"},
		{"bad workers", map[string]string{"POKERFANS_WORKERS": "three"}, "POKERFANS_WORKERS"},
		{"zero workers", map[string]string{"POKERFANS_WORKERS": "0"}, "POKERFANS_WORKERS"},
		{"bad delay", map[string]string{"POKERFANS_LIST_DELAY": "10s-5s"}, "POKERFANS_LIST_DELAY"},
		{"bad pause", map[string]string{"POKERFANS_BATCH_PAUSE": "soon"}, "POKERFANS_BATCH_PAUSE"},
		{"negative pause", map[string]string{"POKERFANS_FIRST_PAGE_PAUSE": "-1s"}, "POKERFANS_FIRST_PAGE_PAUSE"},
		{"zero timeout", map[string]string{"POKERFANS_TIMEOUT": "0s"}, "POKERFANS_TIMEOUT"},
		{"bad level", map[string]string{"POKERFANS_LOG_LEVEL": "loud"}, "POKERFANS_LOG_LEVEL"},
		{"bad timezone", map[string]string{"POKERFANS_TIMEZONE": "Mars/Olympus"}, "POKERFANS_TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			if err == nil {
				t.Fatal("FromEnv() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %s", err, tt.want)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		wantErr bool
	}{
		{"5s-10s", Range{5 * time.Second, 10 * time.Second}, false},
		{" 1s - 2s ", Range{time.Second, 2 * time.Second}, false},
		{"3s", Range{3 * time.Second, 3 * time.Second}, false},
		{"0s", Range{}, false},
		{"10s-5s", Range{}, true},
		{"abc", Range{}, true},
		{"1s-xyz", Range{}, true},
	}

	for _, tt := range tests {
		got, err := ParseRange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseRange(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("POKERFANS_WORKERS=2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("POKERFANS_WORKERS", "")
	os.Unsetenv("POKERFANS_WORKERS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2 from .env", cfg.Workers)
	}
}

func TestResolveDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/pokerfans"
	got, err := cfg.ResolveDataDir()
	if err != nil || got != "/var/lib/pokerfans" {
		t.Errorf("ResolveDataDir() = %q, %v", got, err)
	}

	cfg.DataDir = "~/data"
	got, err = cfg.ResolveDataDir()
	if err != nil {
		t.Fatalf("ResolveDataDir() error: %v", err)
	}
	if strings.HasPrefix(got, "~") || !strings.HasSuffix(got, "data") {
		t.Errorf("ResolveDataDir() = %q, want expanded path", got)
	}
}
