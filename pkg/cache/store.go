package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store persists batch entries. Implementations must be safe for concurrent
// use and must report expired entries as ErrCacheMiss.
type Store interface {
	// Get returns the live entry for key or ErrCacheMiss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores entry until entry.Expires. Already expired entries are dropped.
	Set(ctx context.Context, key string, entry *Entry) error

	// Layer names the store in metrics and logs.
	Layer() string
}

// MemoryStore keeps entries in a process-local map.
// Expired entries are dropped lazily on read and in bulk by Purge.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Layer implements Store.
func (s *MemoryStore) Layer() string {
	return "memory"
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}

	if entry.IsExpired() {
		s.mu.Lock()
		// Only remove the entry we saw; a concurrent Set may have replaced it.
		if current, ok := s.entries[key]; ok && current == entry {
			delete(s.entries, key)
		}
		CacheEntries.WithLabelValues(s.Layer()).Set(float64(len(s.entries)))
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}

	return entry, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	if entry.TTL() <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[key] = entry
	CacheEntries.WithLabelValues(s.Layer()).Set(float64(len(s.entries)))
	s.mu.Unlock()

	return nil
}

// Purge removes all expired entries and returns how many were dropped.
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.IsExpired() {
			delete(s.entries, key)
			removed++
		}
	}
	CacheEntries.WithLabelValues(s.Layer()).Set(float64(len(s.entries)))

	return removed
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
