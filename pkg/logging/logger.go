// Package logging configures the global zerolog logger for userlist.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// DefaultService is attached to every log line.
const DefaultService = "userlist"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is logged as the "service" field (default: userlist).
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Output:  os.Stderr,
		Service: DefaultService,
	}
}

// FromLevel returns the default configuration at the given level name.
// Unknown names fall back to info.
func FromLevel(level string, pretty bool) Config {
	cfg := DefaultConfig()
	cfg.Level = LogLevel(strings.ToLower(strings.TrimSpace(level)))
	cfg.Pretty = pretty
	return cfg
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.DurationFieldUnit = time.Millisecond

	output := cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.TimeOnly}
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", cfg.Service).
		Logger()

	log.Logger = logger

	return logger
}

func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: cache hit/miss with key and TTL, coalesced loads, exported pages
//
// Info: upstream batch fetched, warm-up progress, server startup/shutdown
//
// Warn: upstream rate limit blocks (429/503 with Retry-After), retry attempts,
// cache store errors (the request falls back to the upstream)
//
// Error: failed batch fetches (page cannot be resolved), configuration errors
//
// Context Fields:
//   - component: emitting component (upstream-client, page-resolver, ...)
//   - key: batch cache key (users:<all|male|female>:batch:<n>)
//   - page: requested page number
//   - filter: gender filter label
//   - status_code: upstream HTTP status code
//   - error_class: error classification (client, server, rate_limit, network)
//   - duration: request duration (milliseconds)
//   - ttl: cache entry TTL
