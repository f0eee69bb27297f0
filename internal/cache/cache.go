// Package cache holds fetched listing pages keyed by (date, page index).
//
// Entries are written at most once per key per epoch and never mutated. The
// only invalidation is InvalidateAll, which drops every key and starts a new
// epoch; writes tagged with an older epoch are discarded, so an in-flight
// fetch that started before a refresh cannot repopulate the cache with stale
// data.
package cache

import (
	"sync"
	"time"

	"github.com/tournament-radar/pokerfans-events/internal/tournament"
)

// Key identifies one listing page.
type Key struct {
	Date string // YYYY/MM/DD
	Page int    // zero-based
}

// Entry is one successfully fetched page.
type Entry struct {
	Tournaments []tournament.Tournament
	TotalPages  int
	FetchedAt   time.Time
}

// PageCache is safe for concurrent use.
type PageCache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	epoch   uint64
	now     func() time.Time
}

// New creates an empty page cache.
func New() *PageCache {
	return &PageCache{
		entries: make(map[Key]Entry),
		now:     time.Now,
	}
}

// Get returns a copy of the cached entry for key.
func (c *PageCache) Get(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	e.Tournaments = append([]tournament.Tournament(nil), e.Tournaments...)
	return e, true
}

// Put stores entry under key in the current epoch.
// Returns false if the key is already cached.
func (c *PageCache) Put(key Key, entry Entry) bool {
	return c.PutAt(c.Epoch(), key, entry)
}

// PutAt stores entry only if epoch is still current and key is not cached yet.
// A zero FetchedAt is set to the current time.
func (c *PageCache) PutAt(epoch uint64, key Key, entry Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return false
	}
	if _, exists := c.entries[key]; exists {
		return false
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = c.now()
	}
	entry.Tournaments = append([]tournament.Tournament(nil), entry.Tournaments...)
	c.entries[key] = entry
	return true
}

// InvalidateAll drops every cached page and starts a new epoch.
func (c *PageCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]Entry)
	c.epoch++
}

// Epoch returns the current invalidation epoch.
func (c *PageCache) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LastFetched returns the most recent FetchedAt among the pages of date.
func (c *PageCache) LastFetched(date string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var latest time.Time
	for k, e := range c.entries {
		if k.Date == date && e.FetchedAt.After(latest) {
			latest = e.FetchedAt
		}
	}
	return latest, !latest.IsZero()
}
