package resources

import (
	"sync"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
)

// SnapshotCache serves a recent HostSnapshot so frequent status API polls
// do not re-probe the host on every request.
type SnapshotCache struct {
	collector *Collector
	ttl       time.Duration

	mu       sync.Mutex
	current  *HostSnapshot
	hits     int64
	misses   int64
	cachedAt time.Time
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits     int64     `json:"hits"`
	Misses   int64     `json:"misses"`
	CachedAt time.Time `json:"cachedAt"`
}

// NewSnapshotCache wraps collector with a ttl. A non-positive ttl disables
// caching.
func NewSnapshotCache(collector *Collector, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{collector: collector, ttl: ttl}
}

// Get returns the cached snapshot while it is fresh and gathers a new one
// otherwise.
func (c *SnapshotCache) Get() *HostSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.collector.probes.now()
	if c.current != nil && c.ttl > 0 && now.Sub(c.cachedAt) < c.ttl {
		c.hits++
		return c.current
	}

	c.misses++
	c.current = c.collector.Gather()
	c.cachedAt = now
	logging.Debug("Refreshed host snapshot for %s", c.current.Hostname)
	return c.current
}

// Invalidate drops the cached snapshot.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// Stats returns hit and miss counts.
func (c *SnapshotCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, CachedAt: c.cachedAt}
}
