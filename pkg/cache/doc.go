// Package cache provides the batch cache that sits between the page resolver
// and the Random User API.
//
// A batch is the full result set of one upstream call. It is stored under a
// BatchKey derived from the normalized filter and the 1-based batch id, and it
// serves several consecutive display pages until its TTL runs out.
//
// Features:
//
// - GetOrCompute: compute-if-absent with a caller supplied TTL
// - Single-flight coalescing of concurrent misses for the same key
// - No negative caching: a failed supplier leaves the key empty
// - Pluggable storage: in-process MemoryStore or shared RedisStore
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	store := cache.NewMemoryStore()
//	batches := cache.NewBatchCache(store, logger)
//
//	key := cache.BatchKey{Filter: users.FilterFemale, BatchID: 2}
//	batch, err := batches.GetOrCompute(ctx, key, 5*time.Minute, func(ctx context.Context) (cache.Batch, error) {
//		return upstream.Fetch(ctx, key.Filter, 50)
//	})
//
// # Shared Storage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	batches := cache.NewBatchCache(cache.NewRedisStore(redisClient), logger)
//
// Coalescing is per process. Two processes sharing one Redis may each fetch
// the same batch once; the later write wins and both results are valid.
//
// # Metrics
//
//   - userlist_cache_hits_total{layer} - Cache hits
//   - userlist_cache_misses_total - Cache misses that ran the supplier
//   - userlist_cache_coalesced_total - Callers served by another caller's fetch
//   - userlist_cache_entries{layer} - Live entries in the memory store
//   - userlist_cache_errors_total{operation} - Store operation errors
package cache
