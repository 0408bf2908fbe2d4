// Package pagination serves fixed-size display pages out of larger upstream
// batches.
//
// The upstream returns a random set of records per call and has no notion of
// pages. One call fetches ResultsCount records (a batch); the batch is cached
// under its filter and batch number, and every page belonging to it is sliced
// from the cached copy:
//
//	pagesPerBatch = ceil(ResultsCount / PerPage)
//	batchID       = ceil(page / pagesPerBatch)
//	offset        = ((page - 1) mod pagesPerBatch) * PerPage
//
// With 50 results and 10 per page, pages 1-5 come from batch 1 and page 6 is
// the first page of batch 2.
//
// Example usage:
//
//	batches := cache.NewBatchCache(cache.NewMemoryStore(), logger)
//	resolver, err := pagination.NewResolver(batches, upstream, pagination.DefaultConfig())
//	page, err := resolver.Resolve(ctx, pagination.NewPageRequest("6", "female"))
//
// Concurrent requests for pages of the same batch share a single upstream
// call. Failed calls are not cached. Warmer preloads batches ahead of traffic.
package pagination
