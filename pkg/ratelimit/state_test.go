package ratelimit

import (
	"testing"
	"time"
)

func TestState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *State
		maxAge   time.Duration
		expected bool
	}{
		{
			name: "fresh state",
			state: &State{
				LastUpdate: time.Now(),
			},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name: "stale state",
			state: &State{
				LastUpdate: time.Now().Add(-10 * time.Minute),
			},
			maxAge:   5 * time.Minute,
			expected: true,
		},
		{
			name: "just under max age",
			state: &State{
				LastUpdate: time.Now().Add(-4 * time.Minute),
			},
			maxAge:   5 * time.Minute,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.state.IsStale(tt.maxAge)
			if result != tt.expected {
				t.Errorf("IsStale() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestState_IsBlocked(t *testing.T) {
	tests := []struct {
		name         string
		blockedUntil time.Time
		expected     bool
	}{
		{
			name:     "never blocked",
			expected: false,
		},
		{
			name:         "window open",
			blockedUntil: time.Now().Add(time.Minute),
			expected:     true,
		},
		{
			name:         "window closed",
			blockedUntil: time.Now().Add(-time.Second),
			expected:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{BlockedUntil: tt.blockedUntil}
			if got := state.IsBlocked(); got != tt.expected {
				t.Errorf("IsBlocked() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	tests := []struct {
		name         string
		blockedUntil time.Time
		wantMin      time.Duration
		wantMax      time.Duration
	}{
		{
			name:         "future reset",
			blockedUntil: time.Now().Add(30 * time.Second),
			wantMin:      29 * time.Second,
			wantMax:      30 * time.Second,
		},
		{
			name:         "past reset",
			blockedUntil: time.Now().Add(-10 * time.Second),
			wantMin:      0,
			wantMax:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{BlockedUntil: tt.blockedUntil}
			got := state.TimeUntilReset()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TimeUntilReset() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestState_IsHealthy(t *testing.T) {
	if !(&State{}).IsHealthy() {
		t.Error("zero state should be healthy")
	}
	if (&State{ConsecutiveLimits: 2}).IsHealthy() {
		t.Error("state with consecutive limits should not be healthy")
	}
}
