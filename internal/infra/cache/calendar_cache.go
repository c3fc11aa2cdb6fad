package cache

import (
	"sync"
	"time"

	"rentcal/internal/app/calendarsvc"
	"rentcal/internal/domain/calendar"
)

// CalendarCache is an in-process TTL cache for built calendars. Entries are
// indexed per listing so one write can evict every cached window of that
// listing at once.
type CalendarCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	entries   map[string]entry
	byListing map[string]map[string]struct{}
	now       func() time.Time
}

type entry struct {
	result  calendar.Result
	expires time.Time
}

func NewCalendarCache(ttl time.Duration) *CalendarCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CalendarCache{
		ttl:       ttl,
		entries:   make(map[string]entry),
		byListing: make(map[string]map[string]struct{}),
		now:       time.Now,
	}
}

func (c *CalendarCache) Get(key string) (calendar.Result, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		return calendar.Result{}, false
	}
	return e.result, true
}

func (c *CalendarCache) Set(key string, res calendar.Result) {
	listing := calendarsvc.CacheKeyListing(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{result: res, expires: c.now().Add(c.ttl)}
	keys, ok := c.byListing[listing]
	if !ok {
		keys = make(map[string]struct{})
		c.byListing[listing] = keys
	}
	keys[key] = struct{}{}
}

// DeleteListing evicts every window cached for the listing.
func (c *CalendarCache) DeleteListing(listingID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.byListing[listingID] {
		delete(c.entries, key)
	}
	delete(c.byListing, listingID)
	return nil
}

// Len reports the number of live entries; expired ones still count until
// overwritten or evicted.
func (c *CalendarCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ calendarsvc.Cache = (*CalendarCache)(nil)
