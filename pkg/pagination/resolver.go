package pagination

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Sternrassler/randomuser-pager/pkg/cache"
	"github.com/Sternrassler/randomuser-pager/pkg/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrUpstreamUnavailable is returned by Resolve when the batch could not be
// obtained. The underlying transport or payload error stays in the chain.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// GenericErrorMessage is shown to users instead of upstream error details.
const GenericErrorMessage = "Unable to fetch users at this time. Please try again later."

// Defaults matching the public listing.
const (
	DefaultResultsCount = 50
	DefaultPerPage      = 10
	DefaultTTL          = 300 * time.Second
)

// Fetcher loads one batch from the upstream on a cache miss.
type Fetcher interface {
	Fetch(ctx context.Context, filter users.Filter, count int) ([]users.Record, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, filter users.Filter, count int) ([]users.Record, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, filter users.Filter, count int) ([]users.Record, error) {
	return f(ctx, filter, count)
}

// Config holds resolver configuration.
type Config struct {
	// ResultsCount is the number of records fetched per upstream call
	ResultsCount int

	// PerPage is the display page size
	PerPage int

	// TTL is how long a fetched batch is served from cache
	TTL time.Duration
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		ResultsCount: DefaultResultsCount,
		PerPage:      DefaultPerPage,
		TTL:          DefaultTTL,
	}
}

// Resolver maps page requests onto cached upstream batches.
// It holds no per-request state; all shared state lives in the batch cache.
type Resolver struct {
	batches *cache.BatchCache
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// NewResolver creates a resolver reading through batches and filling misses from fetcher.
func NewResolver(batches *cache.BatchCache, fetcher Fetcher, cfg Config) (*Resolver, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch cache is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.ResultsCount <= 0 {
		return nil, fmt.Errorf("results count must be positive (got %d)", cfg.ResultsCount)
	}
	if cfg.PerPage <= 0 {
		return nil, fmt.Errorf("per page must be positive (got %d)", cfg.PerPage)
	}

	return &Resolver{
		batches: batches,
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With().Str("component", "page-resolver").Logger(),
	}, nil
}

// Config returns the resolver configuration.
func (r *Resolver) Config() Config {
	return r.config
}

// Resolve returns the records of req.Page. A short final slice is valid.
// On upstream failure the error matches ErrUpstreamUnavailable.
func (r *Resolver) Resolve(ctx context.Context, req PageRequest) (ResolvedPage, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	filter := users.ParseFilter(string(req.Filter))

	pagesPerBatch := PagesPerBatch(r.config.ResultsCount, r.config.PerPage)
	key := cache.BatchKey{
		Filter:  filter,
		BatchID: BatchID(page, pagesPerBatch),
	}

	batch, err := r.batches.GetOrCompute(ctx, key, r.config.TTL, func(ctx context.Context) (cache.Batch, error) {
		return r.fetcher.Fetch(ctx, filter, r.config.ResultsCount)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ResolvedPage{}, err
		}
		r.logger.Error().
			Err(err).
			Str("key", key.String()).
			Int("page", page).
			Msg("Failed to resolve page")
		return ResolvedPage{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	offset := Offset(page, pagesPerBatch, r.config.PerPage)
	start := min(offset, len(batch))
	end := min(offset+r.config.PerPage, len(batch))

	return ResolvedPage{
		Records:      slices.Clone(batch[start:end]),
		TotalInBatch: r.config.ResultsCount,
		Page:         page,
		PerPage:      r.config.PerPage,
		BatchID:      key.BatchID,
		Filter:       filter,
		Fetched:      len(batch),
	}, nil
}
