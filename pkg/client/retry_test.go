package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fastRetry keeps backoff short enough for unit tests.
func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        40 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), zerolog.Nop(), func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), zerolog.Nop(), func() error {
		callCount++
		if callCount < 3 {
			return &TransportError{StatusCode: 502, ErrorClass: ErrorClassServer}
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_SingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	want := &TransportError{StatusCode: 500, ErrorClass: ErrorClassServer}

	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(1), zerolog.Nop(), func() error {
		callCount++
		return want
	})

	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
	if err != want {
		t.Errorf("error = %v, want the original error", err)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	callCount := 0
	err := retryWithBackoff(context.Background(), fastRetry(3), zerolog.Nop(), func() error {
		callCount++
		return &TransportError{ErrorClass: ErrorClassNetwork, Err: errors.New("connection reset")}
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("exhausted error should still unwrap to *TransportError: %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestRetryWithBackoff_NonRetriableErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "client error", err: &TransportError{StatusCode: 404, ErrorClass: ErrorClassClient}},
		{name: "invalid response", err: ErrInvalidResponse},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callCount := 0
			err := retryWithBackoff(context.Background(), fastRetry(5), zerolog.Nop(), func() error {
				callCount++
				return tt.err
			})

			if callCount != 1 {
				t.Errorf("Expected 1 call, got %d", callCount)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	config := fastRetry(5)
	config.InitialBackoff = time.Second

	callCount := 0
	err := retryWithBackoff(ctx, config, zerolog.Nop(), func() error {
		callCount++
		cancel()
		return &TransportError{ErrorClass: ErrorClassServer}
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestRetryWithBackoff_RateLimitHonorsRetryAfter(t *testing.T) {
	callCount := 0
	start := time.Now()
	config := fastRetry(2)
	config.MaxBackoff = time.Second

	err := retryWithBackoff(context.Background(), config, zerolog.Nop(), func() error {
		callCount++
		if callCount == 1 {
			return &TransportError{StatusCode: 429, ErrorClass: ErrorClassRateLimit, RetryAfter: 150 * time.Millisecond}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("waited %v, want at least the 150ms Retry-After", elapsed)
	}
}

func TestRetryWithBackoff_MaxBackoffCap(t *testing.T) {
	config := RetryConfig{
		MaxAttempts:       4,
		InitialBackoff:    20 * time.Millisecond,
		MaxBackoff:        25 * time.Millisecond,
		BackoffMultiplier: 10.0,
	}

	start := time.Now()
	_ = retryWithBackoff(context.Background(), config, zerolog.Nop(), func() error {
		return &TransportError{ErrorClass: ErrorClassServer}
	})
	elapsed := time.Since(start)

	// Three waits, each at most MaxBackoff +20% jitter.
	if elapsed > 3*30*time.Millisecond+100*time.Millisecond {
		t.Errorf("elapsed %v exceeds capped backoff budget", elapsed)
	}
}

func TestRetryWithBackoff_LongRetryAfterStopsRetrying(t *testing.T) {
	want := &TransportError{StatusCode: 429, ErrorClass: ErrorClassRateLimit, RetryAfter: time.Hour}

	callCount := 0
	start := time.Now()
	err := retryWithBackoff(context.Background(), fastRetry(3), zerolog.Nop(), func() error {
		callCount++
		return want
	})

	if err != want {
		t.Errorf("error = %v, want the rate limit error", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("waited %v on a Retry-After beyond MaxBackoff", elapsed)
	}
}

func TestRetryWithBackoff_BackoffPastDeadlineStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	config := fastRetry(3)
	config.InitialBackoff = time.Second
	config.MaxBackoff = 2 * time.Second

	callCount := 0
	start := time.Now()
	err := retryWithBackoff(ctx, config, zerolog.Nop(), func() error {
		callCount++
		return &TransportError{StatusCode: 502, ErrorClass: ErrorClassServer}
	})

	var transportErr *TransportError
	if !errors.As(err, &transportErr) || errors.Is(err, ErrContextCancelled) {
		t.Errorf("error = %v, want the server error", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("waited %v past the context deadline", elapsed)
	}
}
