// Package config loads the shopdeck console configuration.
//
// # Overview
//
// The console needs to know where the shop backend lives, how long to wait for it,
// and where to keep its own files (session token, log, downloaded reports). All of
// it comes from one optional TOML file plus two environment overrides.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided (--config), use it
//  2. Otherwise, use ~/.config/shopdeck/config.toml
//  3. If the file doesn't exist, use defaults
//  4. Empty or missing fields use defaults
//  5. SHOPDECK_API_URL and SHOPDECK_LOG_LEVEL override the file
//
// # Default Values
//
//   - api_url: http://127.0.0.1:8080/api
//   - request_timeout: 10s
//   - session_file: ~/.local/state/shopdeck/session.toml
//   - log_file: ~/.local/state/shopdeck/shopdeck.log
//   - log_level: info
//   - badge_poll: 30s (never below 5s)
//   - low_stock_badge_threshold: 5
//   - report_dir: ~/Downloads
//
// # TOML Format
//
//	api_url = "https://shop.example.com/api"
//	request_timeout = "15s"
//	log_level = "debug"
//	badge_poll = "1m"
//	report_dir = "~/reports"
//
// Durations use Go syntax ("30s", "2m"). Tilde expansion is applied to every path.
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files (other than
// a missing file), TOML syntax errors and malformed durations. Missing config
// files are not an error.
package config
