package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/randomuser-pager/pkg/users"
)

// PageRequest asks for one display page.
type PageRequest struct {
	// Page is the 1-based page number
	Page int

	// Filter restricts the listing; unsupported values are treated as none
	Filter users.Filter
}

// ParsePage converts a raw page parameter. Missing, malformed and
// non-positive values become 1.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// NewPageRequest builds a normalized request from raw query values.
func NewPageRequest(rawPage, rawFilter string) PageRequest {
	return PageRequest{
		Page:   ParsePage(rawPage),
		Filter: users.ParseFilter(rawFilter),
	}
}

// RequestFromQuery reads page and gender from listing query parameters.
func RequestFromQuery(query url.Values) PageRequest {
	return NewPageRequest(query.Get("page"), query.Get("gender"))
}

// ResolvedPage is one page of records plus the metadata a renderer needs.
type ResolvedPage struct {
	// Records holds at most PerPage records
	Records []users.Record `json:"records"`

	// TotalInBatch is the configured batch size
	TotalInBatch int `json:"total_in_batch"`

	// Page is the resolved page number
	Page int `json:"page"`

	// PerPage is the page size
	PerPage int `json:"per_page"`

	// BatchID is the batch the page was sliced from
	BatchID int `json:"batch_id"`

	// Filter is the normalized filter
	Filter users.Filter `json:"filter,omitempty"`

	// Fetched is the number of records the upstream actually returned for the batch
	Fetched int `json:"fetched"`
}

// PagesPerBatch returns the number of pages one batch covers.
func (p ResolvedPage) PagesPerBatch() int {
	return PagesPerBatch(p.TotalInBatch, p.PerPage)
}

// HasPrev reports whether a previous page exists.
func (p ResolvedPage) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page can be served: either the current
// batch holds more records, or the batch was full and the next batch can be fetched.
func (p ResolvedPage) HasNext() bool {
	if p.Page == math.MaxInt {
		return false
	}
	end := Offset(p.Page, p.PagesPerBatch(), p.PerPage) + p.PerPage
	return end < p.Fetched || p.Fetched >= p.TotalInBatch
}

// QueryFor returns listing query parameters for page, carrying the filter.
func (p ResolvedPage) QueryFor(page int) url.Values {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if !p.Filter.IsNone() {
		query.Set("gender", string(p.Filter))
	}
	return query
}
