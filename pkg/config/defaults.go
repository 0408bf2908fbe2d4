package config

import (
	"strings"
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/cache"
	"github.com/Sternrassler/randomuser-pager/pkg/client"
	"github.com/Sternrassler/randomuser-pager/pkg/pagination"
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			APIURL:       client.DefaultBaseURL,
			ResultsCount: pagination.DefaultResultsCount,
			UserAgent:    client.DefaultUserAgent,
			Timeout:      10 * time.Second,
			MaxAttempts:  1,
		},
		Pagination: PaginationConfig{
			PerPage: pagination.DefaultPerPage,
		},
		Cache: CacheConfig{
			TTL:           pagination.DefaultTTL,
			Backend:       BackendMemory,
			RedisAddr:     "localhost:6379",
			PurgeInterval: time.Minute,
			FlightTimeout: cache.DefaultFlightTimeout,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills zero-valued fields with defaults and normalizes values.
// Explicit values are preserved; a zero cache TTL stays zero (caching disabled).
func ApplyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Upstream.APIURL == "" {
		cfg.Upstream.APIURL = defaults.Upstream.APIURL
	}
	if cfg.Upstream.ResultsCount == 0 {
		cfg.Upstream.ResultsCount = defaults.Upstream.ResultsCount
	}
	if cfg.Upstream.UserAgent == "" {
		cfg.Upstream.UserAgent = defaults.Upstream.UserAgent
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = defaults.Upstream.Timeout
	}
	if cfg.Upstream.MaxAttempts == 0 {
		cfg.Upstream.MaxAttempts = defaults.Upstream.MaxAttempts
	}

	if cfg.Pagination.PerPage == 0 {
		cfg.Pagination.PerPage = defaults.Pagination.PerPage
	}

	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = defaults.Cache.Backend
	}
	if cfg.Cache.Backend == BackendRedis && cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = defaults.Cache.RedisAddr
	}
	if cfg.Cache.FlightTimeout == 0 {
		cfg.Cache.FlightTimeout = defaults.Cache.FlightTimeout
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = defaults.Server.RequestTimeout
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
}

// Resolver returns the page resolver settings.
func (c *Config) Resolver() pagination.Config {
	return pagination.Config{
		ResultsCount: c.Upstream.ResultsCount,
		PerPage:      c.Pagination.PerPage,
		TTL:          c.Cache.TTL,
	}
}

// Client returns the upstream client settings.
func (c *Config) Client() client.Config {
	retry := client.DefaultRetryConfig()
	retry.MaxAttempts = c.Upstream.MaxAttempts

	return client.Config{
		BaseURL:   c.Upstream.APIURL,
		UserAgent: c.Upstream.UserAgent,
		Timeout:   c.Upstream.Timeout,
		Retry:     retry,
	}
}
