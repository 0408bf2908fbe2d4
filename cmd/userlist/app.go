package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/cache"
	"github.com/Sternrassler/randomuser-pager/pkg/client"
	"github.com/Sternrassler/randomuser-pager/pkg/config"
	"github.com/Sternrassler/randomuser-pager/pkg/export"
	"github.com/Sternrassler/randomuser-pager/pkg/logging"
	"github.com/Sternrassler/randomuser-pager/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app wires the core components from configuration. The batch cache is
// created here and injected into the resolver.
type app struct {
	cfg      *config.Config
	memory   *cache.MemoryStore
	redis    *redis.Client
	upstream *client.Client
	resolver *pagination.Resolver
	exporter *export.Exporter
	logger   zerolog.Logger
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logging.NewLogger("userlist"),
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		a.logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Connected to Redis")
		store = cache.NewRedisStore(a.redis)
	default:
		a.memory = cache.NewMemoryStore()
		store = a.memory
	}

	upstream, err := client.New(cfg.Client())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create upstream client: %w", err)
	}
	a.upstream = upstream

	batches := cache.NewBatchCache(store, logging.NewLogger("batch-cache"))
	batches.SetFlightTimeout(cfg.Cache.FlightTimeout)
	resolver, err := pagination.NewResolver(batches, upstream, cfg.Resolver())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create resolver: %w", err)
	}
	a.resolver = resolver
	a.exporter = export.NewExporter(resolver)

	a.logger.Info().
		Str("backend", cfg.Cache.Backend).
		Str("api_url", cfg.Upstream.APIURL).
		Int("results_count", cfg.Upstream.ResultsCount).
		Int("per_page", cfg.Pagination.PerPage).
		Dur("ttl", cfg.Cache.TTL).
		Msg("Components initialized")

	return a, nil
}

// runPurge sweeps expired entries of the memory store until ctx is done.
// It returns immediately for the redis backend, which expires keys itself.
func (a *app) runPurge(ctx context.Context) {
	if a.memory == nil || a.cfg.Cache.PurgeInterval <= 0 {
		return
	}

	ticker := time.NewTicker(a.cfg.Cache.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.memory.Purge(); n > 0 {
				a.logger.Debug().Int("purged", n).Msg("Purged expired batches")
			}
		}
	}
}

// Close releases the redis connection, if any.
func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
