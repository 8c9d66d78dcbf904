package models

import "time"

// CacheEntry is one persisted query result. Key identifies the query,
// Value is the raw response body, FetchedAt orders live data against
// restored data.
type CacheEntry struct {
	Key       string
	Value     []byte
	FetchedAt time.Time
}
