package pagination

// PagesPerBatch returns how many display pages one upstream batch covers:
// ceil(resultsCount / perPage). Both arguments must be positive.
func PagesPerBatch(resultsCount, perPage int) int {
	return ceilDiv(resultsCount, perPage)
}

// BatchID returns the 1-based batch serving page: ceil(page / pagesPerBatch).
func BatchID(page, pagesPerBatch int) int {
	return ceilDiv(page, pagesPerBatch)
}

// Offset returns the index of page's first record inside its batch:
// ((page-1) mod pagesPerBatch) * perPage. The result is in [0, resultsCount).
func Offset(page, pagesPerBatch, perPage int) int {
	return ((page - 1) % pagesPerBatch) * perPage
}

// FirstPage returns the first display page served by batchID.
func FirstPage(batchID, pagesPerBatch int) int {
	return (batchID-1)*pagesPerBatch + 1
}

// ceilDiv avoids the a+b-1 form so pages near math.MaxInt do not wrap.
func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a-1)/b + 1
}
