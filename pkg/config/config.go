// Package config loads userlist configuration from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete userlist configuration.
type Config struct {
	Upstream   UpstreamConfig   `mapstructure:"upstream" yaml:"upstream"`
	Pagination PaginationConfig `mapstructure:"pagination" yaml:"pagination"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// UpstreamConfig configures the Random User API client.
type UpstreamConfig struct {
	// APIURL is the endpoint queried for batches
	APIURL string `mapstructure:"api_url" validate:"required,url" yaml:"api_url"`

	// ResultsCount is the batch size requested per upstream call
	ResultsCount int `mapstructure:"results_count" validate:"required,min=1,max=5000" yaml:"results_count"`

	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`

	// Timeout bounds one upstream HTTP attempt
	Timeout time.Duration `mapstructure:"timeout" validate:"required,gt=0" yaml:"timeout"`

	// MaxAttempts is 1 for no retries
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,min=1,max=10" yaml:"max_attempts"`
}

// PaginationConfig configures page slicing.
type PaginationConfig struct {
	PerPage int `mapstructure:"per_page" validate:"required,min=1" yaml:"per_page"`
}

// CacheConfig configures the batch cache.
type CacheConfig struct {
	// TTL of a cached batch; 0 disables caching
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0" yaml:"ttl"`

	Backend string `mapstructure:"backend" validate:"required,oneof=memory redis" yaml:"backend"`

	RedisAddr string `mapstructure:"redis_addr" validate:"omitempty,hostname_port" yaml:"redis_addr"`

	// PurgeInterval of the expired-entry sweep of the memory backend
	PurgeInterval time.Duration `mapstructure:"purge_interval" validate:"gte=0" yaml:"purge_interval"`

	// FlightTimeout bounds one upstream fetch shared by coalesced callers
	FlightTimeout time.Duration `mapstructure:"flight_timeout" validate:"gte=0" yaml:"flight_timeout"`
}

// ServerConfig configures the HTTP listing server.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required" yaml:"addr"`

	// RequestTimeout bounds how long a request waits for a batch
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required,gt=0" yaml:"request_timeout"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// legacyEnv maps config keys to the unprefixed environment names older deployments set.
var legacyEnv = map[string]string{
	"upstream.api_url":       "RANDOM_USER_API_URL",
	"upstream.results_count": "RANDOM_USER_API_RESULTS",
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (USERLIST_*, then RANDOM_USER_API_URL / RANDOM_USER_API_RESULTS)
//  2. Configuration file (optional; a missing file is not an error)
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper registers defaults and environment bindings. Every key gets a
// default so that environment-only values reach Unmarshal.
func setupViper(v *viper.Viper, configPath string) {
	defaults := DefaultConfig()
	v.SetDefault("upstream.api_url", defaults.Upstream.APIURL)
	v.SetDefault("upstream.results_count", defaults.Upstream.ResultsCount)
	v.SetDefault("upstream.user_agent", defaults.Upstream.UserAgent)
	v.SetDefault("upstream.timeout", defaults.Upstream.Timeout)
	v.SetDefault("upstream.max_attempts", defaults.Upstream.MaxAttempts)
	v.SetDefault("pagination.per_page", defaults.Pagination.PerPage)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("cache.backend", defaults.Cache.Backend)
	v.SetDefault("cache.redis_addr", defaults.Cache.RedisAddr)
	v.SetDefault("cache.purge_interval", defaults.Cache.PurgeInterval)
	v.SetDefault("cache.flight_timeout", defaults.Cache.FlightTimeout)
	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("server.request_timeout", defaults.Server.RequestTimeout)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.pretty", defaults.Logging.Pretty)

	// Example: USERLIST_CACHE_TTL=10m
	v.SetEnvPrefix("USERLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		_ = v.BindEnv(key, "USERLIST_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	}
}
