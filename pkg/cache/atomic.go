package cache

import "sync/atomic"

// atomicCounter is a tiny monotonically-incrementing counter used for the
// cache's hit/miss/eviction/insertion metrics.
type atomicCounter struct {
	v atomic.Uint64
}

func (c *atomicCounter) add(n uint64) { c.v.Add(n) }
func (c *atomicCounter) load() uint64 { return c.v.Load() }
