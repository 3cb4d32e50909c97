package server

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/remote-ui-mcp/internal/model"
	"golang.org/x/sync/singleflight"
)

// ScanFunc produces a fresh multi-window snapshot.
type ScanFunc func(ctx context.Context) (model.MultiWindowResult, error)

// SnapshotCache serves the latest scan for a short TTL so that bursts of
// read-only tool calls share one tree walk. Concurrent misses share a
// single scan. Callers must treat returned snapshots as read-only.
type SnapshotCache struct {
	scan  ScanFunc
	ttl   time.Duration
	group singleflight.Group

	mu         sync.Mutex
	result     model.MultiWindowResult
	timestamp  time.Time
	valid      bool
	generation uint64
}

// NewSnapshotCache creates a new cache. A ttl of 0 disables caching but
// still coalesces concurrent scans.
func NewSnapshotCache(ttl time.Duration, scan ScanFunc) *SnapshotCache {
	return &SnapshotCache{scan: scan, ttl: ttl}
}

// Snapshot returns the cached result if within TTL, otherwise scans.
func (c *SnapshotCache) Snapshot(ctx context.Context) (model.MultiWindowResult, error) {
	c.mu.Lock()
	if c.valid && c.ttl > 0 && time.Since(c.timestamp) < c.ttl {
		result := c.result
		c.mu.Unlock()
		snapshotLookups.WithLabelValues("hit").Inc()
		return result, nil
	}
	gen := c.generation
	c.mu.Unlock()
	snapshotLookups.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do("scan", func() (any, error) {
		result, err := c.scan(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generation == gen {
			c.result, c.timestamp, c.valid = result, time.Now(), true
		}
		c.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return model.MultiWindowResult{}, err
	}
	return v.(model.MultiWindowResult), nil
}

// Invalidate drops the cached result. A scan already in flight will not
// repopulate the cache.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.generation++
}
