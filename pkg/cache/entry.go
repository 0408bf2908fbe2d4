package cache

import (
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/users"
)

// Batch is the ordered record list returned by one upstream call.
// Batches are shared between callers and must not be modified.
type Batch = []users.Record

// Entry represents a cached batch.
type Entry struct {
	// Records is the batch content
	Records Batch `json:"records"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when we cached this batch
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry wraps a batch that stays fresh for ttl.
func NewEntry(records Batch, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Records:  records,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
