package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envAPIURL, "")
	t.Setenv(envLogLevel, "")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want %v", cfg.RequestTimeout, defaultRequestTimeout)
	}
	wantSession, err := expandPath(defaultSessionFile)
	if err != nil {
		t.Fatalf("expandPath(defaultSessionFile) returned error: %v", err)
	}
	if cfg.SessionFile != wantSession {
		t.Fatalf("SessionFile = %q, want %q", cfg.SessionFile, wantSession)
	}
	if cfg.LowStockBadgeThreshold != defaultLowStockBadge {
		t.Fatalf("LowStockBadgeThreshold = %d, want %d", cfg.LowStockBadgeThreshold, defaultLowStockBadge)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envAPIURL, "")
	t.Setenv(envLogLevel, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  https://shop.example.com/api  "
request_timeout = "15s"
log_level = " DEBUG "
badge_poll = "1m"
low_stock_badge_threshold = 3
report_dir = "~/reports"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://shop.example.com/api" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 15*time.Second || cfg.BadgePoll != time.Minute {
		t.Fatalf("durations = %v / %v", cfg.RequestTimeout, cfg.BadgePoll)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.LowStockBadgeThreshold != 3 {
		t.Fatalf("LowStockBadgeThreshold = %d, want 3", cfg.LowStockBadgeThreshold)
	}
	if !strings.HasPrefix(cfg.ReportDir, home) {
		t.Fatalf("ReportDir = %q, want it under HOME %q", cfg.ReportDir, home)
	}
}

func TestLoad_BadgePollHasFloor(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`badge_poll = "1s"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BadgePoll != minBadgePoll {
		t.Fatalf("BadgePoll = %v, want %v", cfg.BadgePoll, minBadgePoll)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(envAPIURL, "http://10.0.0.9:8080/api")
	t.Setenv(envLogLevel, "WARN")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_url = "http://file/api"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.9:8080/api" || cfg.LogLevel != "warn" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_InvalidInputsReturnErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cases := map[string]string{
		"syntax":   "api_url = ",
		"duration": `request_timeout = "soon"`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), "parse config") {
				t.Fatalf("error = %v, want parse config prefix", err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/x/y")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Fatalf("ExpandPath = %q", got)
	}
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
