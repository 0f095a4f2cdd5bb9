// Package interaction is the side-channel cache of per-event
// interest/view counts. The normalizer seeds it on ingest; the
// interaction endpoints read and write it.
package interaction

import "sync"

// Record holds the cached interaction state for one event.
type Record struct {
	InterestCount         int  `json:"interest_count"`
	ViewCount             int  `json:"view_count"`
	Viewed                bool `json:"viewed"`
	InterestStatusChecked bool `json:"interest_status_checked"`
}

// Cache is an in-memory interaction store keyed by event id.
type Cache struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewCache returns an empty interaction cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]Record)}
}

// Seed records the counts observed at ingest, marking the event as not
// yet viewed. Existing entries are overwritten: the store is replaced
// wholesale on refetch and the cache follows the latest counts.
func (c *Cache) Seed(eventID string, interestCount, viewCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[eventID] = Record{
		InterestCount: interestCount,
		ViewCount:     viewCount,
	}
}

// Get returns the record for an event id, if present.
func (c *Cache) Get(eventID string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[eventID]
	return rec, ok
}

// MarkViewed increments the view count the first time an event is
// viewed in this session; later calls are no-ops.
func (c *Cache) MarkViewed(eventID string) Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.records[eventID]
	if !rec.Viewed {
		rec.Viewed = true
		rec.ViewCount++
		c.records[eventID] = rec
	}
	return rec
}

// AddInterest increments the interest count and marks interest status
// as checked.
func (c *Cache) AddInterest(eventID string) Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.records[eventID]
	rec.InterestCount++
	rec.InterestStatusChecked = true
	c.records[eventID] = rec
	return rec
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
