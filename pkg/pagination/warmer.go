package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// WarmConfig holds warmer configuration.
type WarmConfig struct {
	// MaxConcurrency is the maximum number of parallel batch loads.
	// Keep it low: the public upstream rate limits aggressively.
	MaxConcurrency int
	// Timeout per batch load
	Timeout time.Duration
}

// DefaultWarmConfig returns conservative warm-up defaults.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		MaxConcurrency: 2,
		Timeout:        15 * time.Second,
	}
}

// WarmResult describes one batch load.
type WarmResult struct {
	Filter  users.Filter
	BatchID int
	Records int
	Error   error
}

// Warmer preloads batches through a Resolver so later page views hit the cache.
type Warmer struct {
	resolver *Resolver
	config   WarmConfig
}

// NewWarmer creates a warmer.
func NewWarmer(resolver *Resolver, config WarmConfig) *Warmer {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Warmer{
		resolver: resolver,
		config:   config,
	}
}

// Warm loads batches 1..batches for every filter. Loads run in parallel up to
// MaxConcurrency. Failed loads do not stop the others; the returned results
// cover every attempted batch and the error reports how many failed.
func (w *Warmer) Warm(ctx context.Context, filters []users.Filter, batches int) ([]WarmResult, error) {
	if batches <= 0 {
		return nil, nil
	}
	if len(filters) == 0 {
		filters = []users.Filter{users.FilterNone}
	}

	start := time.Now()
	total := len(filters) * batches
	pagesPerBatch := PagesPerBatch(w.resolver.config.ResultsCount, w.resolver.config.PerPage)

	log.Info().
		Int("filters", len(filters)).
		Int("batches", batches).
		Int("workers", w.config.MaxConcurrency).
		Msg("Starting cache warm-up")

	var (
		mu      sync.Mutex
		results = make([]WarmResult, 0, total)
		failed  int
		lastErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.MaxConcurrency)

	for _, filter := range filters {
		for batchID := 1; batchID <= batches; batchID++ {
			if gctx.Err() != nil {
				break
			}

			g.Go(func() error {
				loadCtx, cancel := context.WithTimeout(gctx, w.config.Timeout)
				defer cancel()

				page, err := w.resolver.Resolve(loadCtx, PageRequest{
					Page:   FirstPage(batchID, pagesPerBatch),
					Filter: filter,
				})

				result := WarmResult{Filter: filter, BatchID: batchID, Error: err}
				if err == nil {
					result.Records = page.Fetched
				} else {
					log.Warn().
						Err(err).
						Str("filter", filter.Label()).
						Int("batch", batchID).
						Msg("Batch warm-up failed")
				}

				mu.Lock()
				results = append(results, result)
				if err != nil {
					failed++
					lastErr = err
				}
				done := len(results)
				mu.Unlock()

				if done%10 == 0 {
					log.Info().
						Int("done", done).
						Int("total", total).
						Float64("progress_pct", float64(done)/float64(total)*100).
						Msg("Warm-up progress")
				}

				// Per-batch failures are reported through results, not by cancelling siblings.
				return nil
			})
		}
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("warm-up interrupted (%d/%d batches): %w", len(results), total, err)
	}
	if failed > 0 {
		return results, fmt.Errorf("warm-up incomplete (%d/%d batches failed): %w", failed, total, lastErr)
	}

	log.Info().
		Int("batches", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Warm-up complete")

	return results, nil
}
