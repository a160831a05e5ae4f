package catalog

import (
	"sync"
	"time"

	"venue-cms/internal/models"
)

// settingsCache is a single-slot TTL cache for the site settings singleton.
// It is scoped to the service instance, not package state. A concurrent
// reader during invalidation may observe either the old or new value, which
// is acceptable for rarely-changing settings.
type settingsCache struct {
	mu        sync.Mutex
	value     *models.SiteSettings
	fetchedAt time.Time
	ttl       time.Duration
}

func newSettingsCache(ttl time.Duration) *settingsCache {
	return &settingsCache{ttl: ttl}
}

func (c *settingsCache) get() (*models.SiteSettings, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.value, true
}

func (c *settingsCache) set(v *models.SiteSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.fetchedAt = time.Now()
}

func (c *settingsCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
}
