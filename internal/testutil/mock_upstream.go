// Package testutil provides testing utilities for the Random User client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/users"
)

// MockResponse defines the behavior for a canned mock response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockUpstream is a configurable mock Random User API for testing.
//
// Without a custom handler it answers like the real API: `results` generated
// records, all matching the requested gender. Record i of request n has the
// email "user<n>-<i>@example.com" so tests can tell batches apart.
type MockUpstream struct {
	server  *httptest.Server
	mu      sync.RWMutex
	handler func(w http.ResponseWriter, r *http.Request)

	requestCount int
	lastQuery    url.Values
	lastHeader   http.Header
}

// NewMockUpstream creates a new mock upstream server.
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		n := mock.requestCount
		mock.lastQuery = r.URL.Query()
		mock.lastHeader = r.Header.Clone()
		handler := mock.handler
		mock.mu.Unlock()

		if handler != nil {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r, n)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockUpstream) URL() string {
	return m.server.URL + "/api/"
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and custom handlers.
func (m *MockUpstream) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.lastQuery = nil
	m.lastHeader = nil
	m.handler = nil
}

// SetHandler replaces the default behavior.
func (m *MockUpstream) SetHandler(handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// SetResponse configures a canned response for every request.
func (m *MockUpstream) SetResponse(resp MockResponse) {
	m.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetDelay keeps the default behavior but sleeps before answering.
func (m *MockUpstream) SetDelay(delay time.Duration) {
	m.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		m.mu.RLock()
		n := m.requestCount
		m.mu.RUnlock()
		m.defaultHandler(w, r, n)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockUpstream) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// LastQuery returns the query parameters of the most recent request.
func (m *MockUpstream) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// LastHeader returns the headers of the most recent request.
func (m *MockUpstream) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// defaultHandler provides Random User API-like responses.
func (m *MockUpstream) defaultHandler(w http.ResponseWriter, r *http.Request, requestNum int) {
	count, err := strconv.Atoi(r.URL.Query().Get("results"))
	if err != nil || count <= 0 {
		count = 1
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(Payload(GenerateRecords(requestNum, count, users.ParseFilter(r.URL.Query().Get("gender")))))
}

// GenerateRecords builds count deterministic records for request n.
// Without a filter genders alternate female/male.
func GenerateRecords(n, count int, filter users.Filter) []users.Record {
	natCodes := []string{"AU", "BR", "CA", "CH", "DE", "DK", "ES", "FI", "FR", "GB", "IE", "NL", "NZ", "US"}

	records := make([]users.Record, count)
	for i := range records {
		gender := string(filter)
		if filter.IsNone() {
			gender = string(users.FilterFemale)
			if i%2 == 1 {
				gender = string(users.FilterMale)
			}
		}
		records[i] = users.Record{
			Gender: gender,
			Name: users.Name{
				Title: "Mx",
				First: fmt.Sprintf("First%d", i),
				Last:  fmt.Sprintf("Last%d", i),
			},
			Email: fmt.Sprintf("user%d-%d@example.com", n, i),
			Nat:   natCodes[i%len(natCodes)],
			Login: users.Login{UUID: fmt.Sprintf("%08d-%04d", n, i)},
		}
	}
	return records
}

// Payload encodes records the way the Random User API does.
func Payload(records []users.Record) []byte {
	body, err := json.Marshal(map[string]any{
		"results": records,
		"info": map[string]any{
			"seed":    "testutil",
			"results": len(records),
			"page":    1,
			"version": "1.4",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("encode payload: %v", err))
	}
	return body
}

// NewInvalidPayloadResponse creates a 200 OK response without a results array.
func NewInvalidPayloadResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"info": {"seed": "x", "results": 0}}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewUpstreamErrorResponse creates the 200 OK error body the API sends when it is overloaded.
func NewUpstreamErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"error": "Uh oh, something has gone wrong. Please tweet us @randomapi about the issue. Thank you."}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfterSeconds),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
