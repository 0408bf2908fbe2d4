// Package ratelimit gates upstream requests after the Random User API signals
// overload. A 429 or 503 response opens a block window (from Retry-After when
// present) during which requests are refused locally instead of adding load.
package ratelimit

import (
	"time"
)

// Defaults for block windows.
const (
	// DefaultRetryAfter is used when a 429/503 response carries no usable Retry-After header.
	DefaultRetryAfter = 5 * time.Second

	// MaxRetryAfter caps how long a single response may block requests.
	MaxRetryAfter = 5 * time.Minute
)

// State represents the current upstream rate limit state.
type State struct {
	// BlockedUntil is when requests may resume. Zero means not blocked.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastStatus is the HTTP status of the most recent upstream response.
	LastStatus int `json:"last_status"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`

	// ConsecutiveLimits counts 429/503 responses since the last success.
	ConsecutiveLimits int `json:"consecutive_limits"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsBlocked returns true while the block window is open.
func (s *State) IsBlocked() bool {
	return time.Now().Before(s.BlockedUntil)
}

// TimeUntilReset returns the duration until requests may resume.
// Returns 0 if not blocked.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.BlockedUntil)
	if duration < 0 {
		return 0
	}
	return duration
}

// IsHealthy reports whether the last response was not a rate limit signal.
func (s *State) IsHealthy() bool {
	return s.ConsecutiveLimits == 0
}
