// Package catalog holds the in-memory product catalog snapshots, the
// fuzzy matcher that joins free-text ingredient names to catalog entries,
// and the client that triggers out-of-band catalog refreshes.
package catalog

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/model"
)

// Cache owns one catalog snapshot per retail platform. Snapshots are
// appended to by the refresh callback while the matcher reads them, so
// reads hand out copies and appends take the lock.
type Cache struct {
	mu        sync.RWMutex
	snapshots map[model.Platform][]model.CatalogEntry
}

// NewCache creates an empty cache with one snapshot per retail platform.
func NewCache() *Cache {
	snaps := make(map[model.Platform][]model.CatalogEntry, len(model.RetailPlatforms))
	for _, p := range model.RetailPlatforms {
		snaps[p] = nil
	}
	return &Cache{snapshots: snaps}
}

// Snapshot returns a copy of the current snapshot for a platform.
func (c *Cache) Snapshot(platform model.Platform) []model.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.snapshots[platform]
	out := make([]model.CatalogEntry, len(src))
	copy(out, src)
	return out
}

// Append adds entries delivered by a refresh callback to a platform's
// snapshot.
func (c *Cache) Append(platform model.Platform, entries []model.CatalogEntry) {
	if len(entries) == 0 {
		return
	}
	c.mu.Lock()
	c.snapshots[platform] = append(c.snapshots[platform], entries...)
	size := len(c.snapshots[platform])
	c.mu.Unlock()

	zap.L().Debug("catalog snapshot appended",
		zap.String("platform", string(platform)),
		zap.Int("added", len(entries)),
		zap.Int("size", size),
	)
}

// Replace swaps a platform's snapshot wholesale, for seeding and tests.
func (c *Cache) Replace(platform model.Platform, entries []model.CatalogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[platform] = append([]model.CatalogEntry(nil), entries...)
}

// Len returns the current snapshot size for a platform.
func (c *Cache) Len(platform model.Platform) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots[platform])
}
