package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	upstreamBlockedSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "userlist_rate_limit_blocked_seconds",
		Help: "Seconds remaining in the current upstream block window",
	})

	upstreamRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "userlist_rate_limit_blocks_total",
		Help: "Total number of requests refused locally during a block window",
	})

	upstreamRateLimitSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userlist_rate_limit_signals_total",
		Help: "Total number of upstream responses that opened a block window",
	}, []string{"status"})
)

// Tracker monitors upstream overload signals and gates requests.
// State is process-local; every replica learns the window from its own responses.
type Tracker struct {
	mu     sync.Mutex
	state  State
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		logger: logger,
	}
}

// GetState returns a snapshot of the current state.
func (t *Tracker) GetState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// UpdateFromResponse records an upstream response. 429 and 503 open a block
// window; any other status resets the consecutive counter.
func (t *Tracker) UpdateFromResponse(statusCode int, headers http.Header) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.LastStatus = statusCode
	t.state.LastUpdate = now

	if statusCode != http.StatusTooManyRequests && statusCode != http.StatusServiceUnavailable {
		if t.state.ConsecutiveLimits > 0 {
			t.logger.Info().
				Int("status", statusCode).
				Int("consecutive_limits", t.state.ConsecutiveLimits).
				Msg("Upstream recovered from rate limiting")
		}
		t.state.ConsecutiveLimits = 0
		return
	}

	t.state.ConsecutiveLimits++
	wait, ok := ParseRetryAfter(headers.Get("Retry-After"), now)
	if !ok {
		// Without guidance, back off exponentially on repeated signals.
		wait = DefaultRetryAfter << min(t.state.ConsecutiveLimits-1, 6)
	}
	if wait > MaxRetryAfter {
		wait = MaxRetryAfter
	}

	if until := now.Add(wait); until.After(t.state.BlockedUntil) {
		t.state.BlockedUntil = until
	}

	upstreamRateLimitSignalsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	upstreamBlockedSeconds.Set(t.state.TimeUntilReset().Seconds())

	t.logger.Warn().
		Int("status", statusCode).
		Dur("retry_after", wait).
		Time("blocked_until", t.state.BlockedUntil).
		Int("consecutive_limits", t.state.ConsecutiveLimits).
		Msg("Upstream rate limit signalled - requests will be blocked")
}

// ShouldAllowRequest reports whether a request may be sent now.
// When blocked it returns false and the remaining wait.
func (t *Tracker) ShouldAllowRequest() (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.IsBlocked() {
		upstreamBlockedSeconds.Set(0)
		return true, 0
	}

	wait := t.state.TimeUntilReset()
	upstreamRateLimitBlocksTotal.Inc()
	upstreamBlockedSeconds.Set(wait.Seconds())

	t.logger.Warn().
		Dur("wait_duration", wait).
		Msg("Upstream rate limit active - blocking request")

	return false, wait
}

// ParseRetryAfter parses a Retry-After header given in delta-seconds or as an
// HTTP date. ok is false for empty or malformed values.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	if wait := at.Sub(now); wait > 0 {
		return wait, true
	}
	return 0, true
}
