// Package client provides the Random User API client. It is the only component
// that performs network I/O; caching happens above it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/ratelimit"
	"github.com/Sternrassler/randomuser-pager/pkg/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userlist_upstream_requests_total",
		Help: "Total upstream requests by status",
	}, []string{"status"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "userlist_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userlist_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public Random User API endpoint.
	DefaultBaseURL = "https://randomuser.me/api/"

	// DefaultUserAgent identifies this client upstream.
	DefaultUserAgent = "randomuser-pager/0.1.0"

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 16 << 20
)

// Client fetches user batches from the Random User API.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API endpoint queried with results/gender parameters
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout bounds a single HTTP attempt
	Timeout time.Duration

	// Retry controls retries of transport failures (default: none)
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   10 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "upstream-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     baseURL,
		rateLimiter: ratelimit.NewTracker(logger),
		config:      cfg,
		logger:      logger,
	}, nil
}

// Fetch requests count users, restricted to filter when set.
//
// Errors:
//   - *TransportError for network failures, non-2xx statuses and local rate limit blocks
//   - ErrInvalidResponse (wrapped) when the body has no results array
func (c *Client) Fetch(ctx context.Context, filter users.Filter, count int) ([]users.Record, error) {
	if count <= 0 {
		return nil, fmt.Errorf("results count must be positive (got %d)", count)
	}

	reqURL := c.buildURL(users.ParseFilter(string(filter)), count)

	var records []users.Record
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		var fetchErr error
		records, fetchErr = c.fetchOnce(ctx, reqURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("filter", filter.Label()).
		Int("requested", count).
		Int("received", len(records)).
		Msg("Fetched upstream batch")

	return records, nil
}

// buildURL adds results and gender to the base URL, keeping any query
// parameters already configured on it.
func (c *Client) buildURL(filter users.Filter, count int) string {
	u := *c.baseURL
	query := u.Query()
	query.Set("results", strconv.Itoa(count))
	if !filter.IsNone() {
		query.Set("gender", string(filter))
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// fetchOnce performs a single HTTP attempt.
func (c *Client) fetchOnce(ctx context.Context, reqURL string) ([]users.Record, error) {
	if allowed, wait := c.rateLimiter.ShouldAllowRequest(); !allowed {
		upstreamRequestsTotal.WithLabelValues("rate_limited").Inc()
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
		return nil, &TransportError{
			ErrorClass: ErrorClassRateLimit,
			Message:    "request blocked: upstream rate limit active",
			RetryAfter: wait,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	upstreamRequestDuration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		c.logger.Error().Err(err).Str("url", reqURL).Msg("HTTP request failed")
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		upstreamRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &TransportError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	c.rateLimiter.UpdateFromResponse(resp.StatusCode, resp.Header)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := ClassifyStatus(resp.StatusCode)
		upstreamErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Upstream request error")

		transportErr := &TransportError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
		if errClass == ErrorClassRateLimit {
			transportErr.RetryAfter, _ = ratelimit.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		}
		return nil, transportErr
	}

	records, err := decodeResults(body)
	if err != nil {
		c.logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("Upstream payload rejected")
		return nil, err
	}

	return records, nil
}

// resultsPayload is the subset of the upstream body the client reads.
type resultsPayload struct {
	Results json.RawMessage `json:"results"`
	Error   string          `json:"error"`
}

// decodeResults extracts the results array. A missing, null or non-array
// results field is an ErrInvalidResponse.
func decodeResults(body []byte) ([]users.Record, error) {
	var payload resultsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrInvalidResponse, err)
	}

	raw := bytes.TrimSpace(payload.Results)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if payload.Error != "" {
			return nil, fmt.Errorf("%w: missing results: upstream error %q", ErrInvalidResponse, payload.Error)
		}
		return nil, fmt.Errorf("%w: missing results", ErrInvalidResponse)
	}
	if raw[0] != '[' {
		return nil, fmt.Errorf("%w: results is not an array", ErrInvalidResponse)
	}

	var records []users.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decode results: %v", ErrInvalidResponse, err)
	}

	return records, nil
}

// RateLimitState returns the current upstream rate limit state.
func (c *Client) RateLimitState() ratelimit.State {
	return c.rateLimiter.GetState()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
