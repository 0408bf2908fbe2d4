package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userlist_cache_hits_total",
			Help: "Total number of batch cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks misses that ran the supplier
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "userlist_cache_misses_total",
			Help: "Total number of batch cache misses",
		},
	)

	// CacheCoalesced tracks callers that received the result of a fetch
	// started by another caller
	CacheCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "userlist_cache_coalesced_total",
			Help: "Total number of cache lookups served by an in-flight fetch",
		},
	)

	// CacheEntries tracks live entries by layer
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "userlist_cache_entries",
			Help: "Current number of cached batches",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userlist_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set"
	)
)
