package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the console's settings.
type Config struct {
	APIURL                 string
	RequestTimeout         time.Duration
	SessionFile            string
	LogFile                string
	LogLevel               string
	BadgePoll              time.Duration
	LowStockBadgeThreshold int
	ReportDir              string
}

const (
	defaultConfigPath     = "~/.config/shopdeck/config.toml"
	defaultAPIURL         = "http://127.0.0.1:8080/api"
	defaultRequestTimeout = 10 * time.Second
	defaultSessionFile    = "~/.local/state/shopdeck/session.toml"
	defaultLogFile        = "~/.local/state/shopdeck/shopdeck.log"
	defaultLogLevel       = "info"
	defaultBadgePoll      = 30 * time.Second
	defaultLowStockBadge  = 5
	defaultReportDir      = "~/Downloads"
	minBadgePoll          = 5 * time.Second
	envAPIURL             = "SHOPDECK_API_URL"
	envLogLevel           = "SHOPDECK_LOG_LEVEL"
)

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		APIURL:                 defaultAPIURL,
		RequestTimeout:         defaultRequestTimeout,
		SessionFile:            mustExpand(defaultSessionFile),
		LogFile:                mustExpand(defaultLogFile),
		LogLevel:               defaultLogLevel,
		BadgePoll:              defaultBadgePoll,
		LowStockBadgeThreshold: defaultLowStockBadge,
		ReportDir:              mustExpand(defaultReportDir),
	}
}

// Load reads the config file, falling back to defaults when it is missing, then
// applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL                 string `toml:"api_url"`
		RequestTimeout         string `toml:"request_timeout"`
		SessionFile            string `toml:"session_file"`
		LogFile                string `toml:"log_file"`
		LogLevel               string `toml:"log_level"`
		BadgePoll              string `toml:"badge_poll"`
		LowStockBadgeThreshold int    `toml:"low_stock_badge_threshold"`
		ReportDir              string `toml:"report_dir"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.BadgePoll, err = parseDuration("badge_poll", raw.BadgePoll, defaultBadgePoll); err != nil {
		return Config{}, err
	}
	if cfg.BadgePoll < minBadgePoll {
		cfg.BadgePoll = minBadgePoll
	}
	if v := strings.TrimSpace(raw.SessionFile); v != "" {
		cfg.SessionFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if raw.LowStockBadgeThreshold > 0 {
		cfg.LowStockBadgeThreshold = raw.LowStockBadgeThreshold
	}
	if v := strings.TrimSpace(raw.ReportDir); v != "" {
		cfg.ReportDir = mustExpand(v)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

func parseDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}

// ExpandPath resolves "~" and relative paths.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
