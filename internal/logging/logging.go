// Package logging builds the file logger. The terminal belongs to the TUI, so log
// output always goes to a file (or is discarded).
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a JSON zap logger writing to path. An empty path returns a no-op
// logger. Unknown levels fall back to info.
//
// Level conventions:
//   - error: unexpected failures the operator cannot fix from the console
//   - warn:  backend errors (4xx/5xx), session expiry, dropped responses
//   - info:  login/logout, navigation, mutations (status change, toggles, saves)
//   - debug: every request with redacted bodies, debounce and page corrections
func New(path, level string) (*zap.Logger, error) {
	if strings.TrimSpace(path) == "" {
		return zap.NewNop(), nil
	}
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	return build(lvl, path)
}

// NewConsole creates a JSON logger on stderr, for processes that do not own a
// terminal UI.
func NewConsole(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return build(lvl, "stderr")
}

func build(lvl zapcore.Level, output string) (*zap.Logger, error) {
	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(lvl),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{output},
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// sensitiveFields are masked by Redact, compared case-insensitively.
var sensitiveFields = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"accesstoken":   true,
	"access_token":  true,
	"refresh_token": true,
	"authorization": true,
}

// Redact returns a copy of body with sensitive values replaced by "[REDACTED]",
// descending into nested objects.
func Redact(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		switch {
		case sensitiveFields[strings.ToLower(k)]:
			out[k] = "[REDACTED]"
		default:
			if nested, ok := v.(map[string]any); ok {
				out[k] = Redact(nested)
			} else {
				out[k] = v
			}
		}
	}
	return out
}
