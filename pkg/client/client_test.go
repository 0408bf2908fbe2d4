package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/randomuser-pager/internal/testutil"
	"github.com/Sternrassler/randomuser-pager/pkg/users"
)

// newTestClient creates a client pointed at the mock upstream.
func newTestClient(t *testing.T, mock *testutil.MockUpstream) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = mock.URL()
	cfg.UserAgent = "TestApp/1.0.0 (test@example.com)"
	cfg.Timeout = 2 * time.Second

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(),
			expectError: false,
		},
		{
			name:        "empty base url",
			config:      Config{UserAgent: "TestApp/1.0"},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name:        "unsupported scheme",
			config:      Config{BaseURL: "ftp://randomuser.me/api/"},
			expectError: true,
			errorMsg:    "base url must be http or https",
		},
		{
			name:        "defaults applied for zero values",
			config:      Config{BaseURL: "https://randomuser.me/api/"},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Error = %q, want it to contain %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if c.config.UserAgent == "" {
				t.Error("UserAgent default not applied")
			}
			if c.config.Retry.MaxAttempts < 1 {
				t.Error("Retry default not applied")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 1 {
		t.Errorf("Retry.MaxAttempts = %d, want 1", cfg.Retry.MaxAttempts)
	}
}

func TestFetch_Success(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	c := newTestClient(t, mock)

	records, err := c.Fetch(context.Background(), users.FilterNone, 50)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(records) != 50 {
		t.Errorf("received %d records, want 50", len(records))
	}
	if got := mock.LastQuery().Get("results"); got != "50" {
		t.Errorf("results param = %q, want %q", got, "50")
	}
	if mock.LastQuery().Has("gender") {
		t.Errorf("gender param sent without filter: %q", mock.LastQuery().Get("gender"))
	}
	if got := mock.LastHeader().Get("User-Agent"); got != "TestApp/1.0.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := mock.LastHeader().Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want application/json", got)
	}
}

func TestFetch_Filter(t *testing.T) {
	tests := []struct {
		name       string
		filter     users.Filter
		wantGender string
	}{
		{name: "female", filter: users.FilterFemale, wantGender: "female"},
		{name: "male", filter: users.FilterMale, wantGender: "male"},
		{name: "unsupported value is dropped", filter: users.Filter("other"), wantGender: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockUpstream()
			defer mock.Close()
			c := newTestClient(t, mock)

			records, err := c.Fetch(context.Background(), tt.filter, 5)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}

			if got := mock.LastQuery().Get("gender"); got != tt.wantGender {
				t.Errorf("gender param = %q, want %q", got, tt.wantGender)
			}
			if tt.wantGender != "" {
				for _, r := range records {
					if r.Gender != tt.wantGender {
						t.Errorf("record gender = %q, want %q", r.Gender, tt.wantGender)
					}
				}
			}
		})
	}
}

func TestFetch_PreservesBaseURLQuery(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = mock.URL() + "?seed=pager&inc=name,email"
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.Fetch(context.Background(), users.FilterMale, 3); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	q := mock.LastQuery()
	if q.Get("seed") != "pager" || q.Get("inc") != "name,email" {
		t.Errorf("base query lost: %v", q)
	}
	if q.Get("results") != "3" || q.Get("gender") != "male" {
		t.Errorf("request params wrong: %v", q)
	}
}

func TestFetch_InvalidCount(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.Fetch(context.Background(), users.FilterNone, 0); err == nil {
		t.Error("Fetch with count 0 should fail")
	}
}

func TestFetch_InvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		resp testutil.MockResponse
	}{
		{name: "missing results", resp: testutil.NewInvalidPayloadResponse()},
		{name: "upstream error body", resp: testutil.NewUpstreamErrorResponse()},
		{name: "null results", resp: testutil.MockResponse{StatusCode: http.StatusOK, Body: `{"results": null}`}},
		{name: "results not an array", resp: testutil.MockResponse{StatusCode: http.StatusOK, Body: `{"results": {"name": "x"}}`}},
		{name: "not json", resp: testutil.MockResponse{StatusCode: http.StatusOK, Body: `<html>maintenance</html>`}},
		{name: "wrong element type", resp: testutil.MockResponse{StatusCode: http.StatusOK, Body: `{"results": [1, 2, 3]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockUpstream()
			defer mock.Close()
			mock.SetResponse(tt.resp)
			c := newTestClient(t, mock)

			_, err := c.Fetch(context.Background(), users.FilterNone, 10)
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("error = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestFetch_EmptyResultsIsValid(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.MockResponse{StatusCode: http.StatusOK, Body: `{"results": []}`})
	c := newTestClient(t, mock)

	records, err := c.Fetch(context.Background(), users.FilterNone, 10)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("received %d records, want 0", len(records))
	}
}

func TestFetch_TransportErrors(t *testing.T) {
	tests := []struct {
		name       string
		resp       testutil.MockResponse
		wantStatus int
		wantClass  ErrorClass
	}{
		{
			name:       "server error",
			resp:       testutil.NewServerErrorResponse(),
			wantStatus: 500,
			wantClass:  ErrorClassServer,
		},
		{
			name:       "not found",
			resp:       testutil.MockResponse{StatusCode: http.StatusNotFound},
			wantStatus: 404,
			wantClass:  ErrorClassClient,
		},
		{
			name:       "rate limited",
			resp:       testutil.NewRateLimitResponse(30),
			wantStatus: 429,
			wantClass:  ErrorClassRateLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockUpstream()
			defer mock.Close()
			mock.SetResponse(tt.resp)
			c := newTestClient(t, mock)

			_, err := c.Fetch(context.Background(), users.FilterNone, 10)

			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("error = %v, want *TransportError", err)
			}
			if transportErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", transportErr.StatusCode, tt.wantStatus)
			}
			if transportErr.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", transportErr.ErrorClass, tt.wantClass)
			}
		})
	}
}

func TestFetch_NetworkError(t *testing.T) {
	mock := testutil.NewMockUpstream()
	c := newTestClient(t, mock)
	mock.Close()

	_, err := c.Fetch(context.Background(), users.FilterNone, 10)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if transportErr.ErrorClass != ErrorClassNetwork {
		t.Errorf("ErrorClass = %q, want %q", transportErr.ErrorClass, ErrorClassNetwork)
	}
}

func TestFetch_RateLimitBlocksFollowingRequests(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.NewRateLimitResponse(60))
	c := newTestClient(t, mock)

	if _, err := c.Fetch(context.Background(), users.FilterNone, 10); err == nil {
		t.Fatal("expected rate limit error")
	}

	mock.Reset()

	_, err := c.Fetch(context.Background(), users.FilterNone, 10)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || transportErr.ErrorClass != ErrorClassRateLimit {
		t.Fatalf("error = %v, want local rate limit block", err)
	}
	if transportErr.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", transportErr.RetryAfter)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("blocked request reached upstream (%d requests)", mock.GetRequestCount())
	}
	if !c.RateLimitState().IsBlocked() {
		t.Error("RateLimitState should report blocked")
	}
}

func TestFetch_RetryOnServerError(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()

	var calls int32
	mock.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(testutil.Payload(testutil.GenerateRecords(2, 4, users.FilterNone)))
	})

	cfg := DefaultConfig()
	cfg.BaseURL = mock.URL()
	cfg.Retry = fastRetry(3)
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	records, err := c.Fetch(context.Background(), users.FilterNone, 4)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 4 {
		t.Errorf("received %d records, want 4", len(records))
	}
	if calls != 2 {
		t.Errorf("upstream called %d times, want 2", calls)
	}
}

func TestFetch_NoRetryByDefault(t *testing.T) {
	mock := testutil.NewMockUpstream()
	defer mock.Close()
	mock.SetResponse(testutil.NewServerErrorResponse())
	c := newTestClient(t, mock)

	if _, err := c.Fetch(context.Background(), users.FilterNone, 10); err == nil {
		t.Fatal("expected error")
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("upstream called %d times, want 1", mock.GetRequestCount())
	}
}
