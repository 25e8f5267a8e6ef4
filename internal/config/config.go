// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Sheets   SheetsConfig
	Fetch    FetchConfig
	Display  DisplayConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SheetsConfig identifies the upstream spreadsheet.
// Both SheetID and APIKey are optional: when either is missing the
// service serves the built-in sample records.
type SheetsConfig struct {
	// SheetID is the spreadsheet document id
	SheetID string `env:"GOOGLE_SHEET_ID"`

	// APIKey is the Sheets API access key
	APIKey string `env:"GOOGLE_SHEETS_API_KEY" envAlt:"SHEETS_API_KEY"`

	// BaseURL is the Sheets API root (default: https://sheets.googleapis.com)
	BaseURL string `env:"SHEETS_BASE_URL" default:"https://sheets.googleapis.com"`

	// Range is the A1 cell range requested from the first sheet (default: A1:Z1000)
	Range string `env:"SHEETS_RANGE" default:"A1:Z1000"`

	// PublicBaseURL is the externally visible URL of this service, reported by diagnostics
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

// Configured reports whether both the sheet id and the api key are set.
func (c *SheetsConfig) Configured() bool {
	return c.SheetID != "" && c.APIKey != ""
}

// FetchConfig holds upstream request behavior.
type FetchConfig struct {
	// Retries is the number of additional attempts after the first (default: 2)
	Retries int `env:"FETCH_RETRIES" default:"2"`

	// RetryDelay is the fixed pause between attempts (default: 1s)
	RetryDelay time.Duration `env:"FETCH_RETRY_DELAY" default:"1s"`

	// Timeout bounds every single attempt (default: 12s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"12s"`

	// MaxConcurrent is the maximum number of parallel upstream fetches (default: 4)
	MaxConcurrent int `env:"FETCH_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a fetch waits for a free slot (default: 5s)
	MaxWait time.Duration `env:"FETCH_MAX_WAIT" default:"5s"`
}

// DisplayConfig seeds the display settings store at startup.
type DisplayConfig struct {
	// VisibleColumns is the comma-separated allow-list for guests (default: name)
	VisibleColumns []string `env:"DISPLAY_VISIBLE_COLUMNS" default:"name"`

	// IDColumn is the header whose cells supply record ids directly
	IDColumn string `env:"DISPLAY_ID_COLUMN"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards the administrative routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted admin keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
