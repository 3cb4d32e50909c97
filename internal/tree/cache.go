package tree

import (
	"github.com/mj1618/remote-ui-mcp/internal/fault"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
)

// Entry is the tree position recorded for a cached handle.
type Entry struct {
	Depth    int
	Index    int
	ParentID string
}

type cached struct {
	Entry
	handle platform.NativeHandle
}

// Cache maps stable ids to the native handles seen by the latest scan. The
// cache is the only owner of its handles and releases each exactly once,
// when the entry is evicted. A Cache is not safe for concurrent use; it is
// confined to the UI thread.
type Cache struct {
	entries map[string]*cached
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cached)}
}

// Put stores h under id, taking ownership. A different handle already stored
// under id is released.
func (c *Cache) Put(id string, h platform.NativeHandle, depth, index int, parentID string) {
	if old, ok := c.entries[id]; ok && old.handle != h {
		old.handle.Release()
	}
	c.entries[id] = &cached{Entry: Entry{Depth: depth, Index: index, ParentID: parentID}, handle: h}
}

// Get returns the tree position recorded for id.
func (c *Cache) Get(id string) (Entry, bool) {
	e, ok := c.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Len returns the number of cached handles.
func (c *Cache) Len() int { return len(c.entries) }

// Clear releases every handle and empties the cache.
func (c *Cache) Clear() {
	for _, e := range c.entries {
		e.handle.Release()
	}
	c.entries = make(map[string]*cached)
}

// Replace swaps the cache contents for the handles collected in sink. The
// sink is left empty.
func (c *Cache) Replace(sink *Sink) {
	c.Clear()
	for _, e := range sink.entries {
		c.Put(e.id, e.handle, e.entry.Depth, e.entry.Index, e.entry.ParentID)
	}
	sink.entries = nil
}

// Evict releases and removes the handle stored under id.
func (c *Cache) Evict(id string) {
	if e, ok := c.entries[id]; ok {
		e.handle.Release()
		delete(c.entries, id)
	}
}

// Use runs fn with the handle stored under id after refreshing it against
// the live tree. A handle that fails to refresh is evicted. The handle must
// not be retained after fn returns.
func (c *Cache) Use(id string, fn func(h platform.NativeHandle, e Entry) error) error {
	e, ok := c.entries[id]
	if !ok {
		return fault.NotFound("element %s not found; refresh the tree and retry", id)
	}
	if !e.handle.Refresh() {
		c.Evict(id)
		return fault.NotFound("element %s is no longer on screen", id)
	}
	return fn(e.handle, e.Entry)
}
