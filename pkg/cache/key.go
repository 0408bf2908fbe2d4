package cache

import (
	"fmt"

	"github.com/Sternrassler/randomuser-pager/pkg/users"
)

// BatchKey identifies one cached upstream batch.
type BatchKey struct {
	// Filter is the normalized filter the batch was fetched with
	Filter users.Filter

	// BatchID is the 1-based batch number
	BatchID int
}

// String generates a deterministic cache key string.
// Format: users:<filter>:batch:<id>
//
// Example:
//
//	users:all:batch:2
func (k BatchKey) String() string {
	return fmt.Sprintf("users:%s:batch:%d", users.ParseFilter(string(k.Filter)).Label(), k.BatchID)
}
