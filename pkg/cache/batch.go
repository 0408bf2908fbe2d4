package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultFlightTimeout bounds a single supplier run when none is configured.
const DefaultFlightTimeout = time.Minute

// Supplier produces a batch on a cache miss.
type Supplier func(ctx context.Context) (Batch, error)

// BatchCache is a TTL cache with a single compute-if-absent operation.
//
// Concurrency policy: concurrent misses for the same key are coalesced, so at
// most one supplier runs per key at a time and every waiter receives the same
// batch or the same error. Failed computations are never stored.
type BatchCache struct {
	store         Store
	group         singleflight.Group
	flightTimeout time.Duration
	logger        zerolog.Logger
}

// NewBatchCache creates a batch cache on top of store.
func NewBatchCache(store Store, logger zerolog.Logger) *BatchCache {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &BatchCache{
		store:         store,
		flightTimeout: DefaultFlightTimeout,
		logger:        logger.With().Str("layer", store.Layer()).Logger(),
	}
}

// SetFlightTimeout bounds how long one supplier run may take. A stuck fetch
// fails after d and the next caller for the key starts a fresh one.
func (c *BatchCache) SetFlightTimeout(d time.Duration) {
	if d > 0 {
		c.flightTimeout = d
	}
}

// GetOrCompute returns the batch cached under key, calling supplier when the
// key is absent or expired. A successful result is stored for ttl; ttl <= 0
// computes without storing.
//
// Cancelling ctx stops this caller from waiting but does not cancel a fetch
// other callers are waiting on: the supplier runs with ctx's values, without
// its cancellation, and under the flight timeout.
func (c *BatchCache) GetOrCompute(ctx context.Context, key BatchKey, ttl time.Duration, supplier Supplier) (Batch, error) {
	cacheKey := key.String()

	if batch, ok := c.lookup(ctx, cacheKey); ok {
		return batch, nil
	}

	ch := c.group.DoChan(cacheKey, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()

		// A flight that completed between our lookup and DoChan has already stored the batch.
		if batch, ok := c.lookup(flightCtx, cacheKey); ok {
			return batch, nil
		}

		CacheMisses.Inc()
		start := time.Now()

		batch, err := supplier(flightCtx)
		if err != nil {
			c.logger.Debug().
				Err(err).
				Str("key", cacheKey).
				Msg("Batch supplier failed, nothing cached")
			return nil, err
		}

		if ttl > 0 {
			if err := c.store.Set(flightCtx, cacheKey, NewEntry(batch, ttl)); err != nil {
				c.logger.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache batch")
			} else {
				c.logger.Debug().
					Str("key", cacheKey).
					Int("records", len(batch)).
					Dur("ttl", ttl).
					Dur("fetch_duration", time.Since(start)).
					Msg("Cached batch")
			}
		}

		return batch, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			CacheCoalesced.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Batch), nil
	}
}

// lookup reads key from the store. Store failures count as a miss so a broken
// backend degrades to fetching upstream.
func (c *BatchCache) lookup(ctx context.Context, key string) (Batch, bool) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache get error")
		}
		return nil, false
	}

	CacheHits.WithLabelValues(c.store.Layer()).Inc()
	c.logger.Debug().
		Str("key", key).
		Dur("ttl", entry.TTL()).
		Msg("Cache hit")

	return entry.Records, true
}
