// Package cache implements BoundedCache[K,V]: a generic LRU
// cache bounded by entry count, with idle and absolute TTL eviction, an
// eviction listener, and atomic hit/miss/eviction/insertion counters.
//
// It backs the profile cache, the per-profile IndexStore handle cache, and
// any other "lazily build, bound, evict" lookup the core needs.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/AccessDevops/S3Explorer/internal/telemetry"
)

// EvictionCause identifies why an entry left the cache.
type EvictionCause int

const (
	CauseCapacity EvictionCause = iota
	CauseIdle
	CauseTTL
	CauseExplicit
)

func (c EvictionCause) String() string {
	switch c {
	case CauseCapacity:
		return "capacity"
	case CauseIdle:
		return "idle"
	case CauseTTL:
		return "ttl"
	case CauseExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Listener is invoked (outside the cache's lock) whenever an entry is evicted.
type Listener[K comparable] func(key K, cause EvictionCause)

// Config configures a BoundedCache.
type Config struct {
	// MaxEntries bounds the cache by LRU eviction. Default 5.
	MaxEntries int
	// IdleTimeout evicts an entry that hasn't been accessed in this long.
	// Default 600s. Zero disables idle eviction.
	IdleTimeout time.Duration
	// TTL evicts an entry this long after insertion regardless of access.
	// Default 3600s. Zero disables absolute-TTL eviction.
	TTL time.Duration
}

// DefaultConfig returns the stock cache sizing.
func DefaultConfig() Config {
	return Config{MaxEntries: 5, IdleTimeout: 600 * time.Second, TTL: 3600 * time.Second}
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Insertions uint64
	Len       int
}

// HitRate returns hits/(hits+misses), or 0 when undefined.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry[K comparable, V any] struct {
	key        K
	value      V
	insertedAt time.Time
	lastAccess time.Time
}

// BoundedCache is a generic, concurrency-safe LRU+TTL cache with an
// at-most-one-build guarantee for GetOrInsertWith.
type BoundedCache[K comparable, V any] struct {
	name string
	cfg  Config

	mu       sync.Mutex
	elements map[K]*list.Element
	order    *list.List // front = most recently used

	// buildLocks serializes concurrent GetOrInsertWith calls for the same key
	// so init runs exactly once under contention.
	buildLocks map[K]*sync.Mutex
	buildMu    sync.Mutex

	listener Listener[K]

	hits, misses, evictions, insertions atomicCounter
}

// New constructs a BoundedCache. name is used only for telemetry span labels.
func New[K comparable, V any](name string, cfg Config, listener Listener[K]) *BoundedCache[K, V] {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	return &BoundedCache[K, V]{
		name:       name,
		cfg:        cfg,
		elements:   make(map[K]*list.Element),
		order:      list.New(),
		buildLocks: make(map[K]*sync.Mutex),
		listener:   listener,
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *BoundedCache[K, V]) Get(ctx context.Context, key K) (V, bool) {
	_, span := telemetry.StartCacheSpan(ctx, "get", c.name)
	defer span.End()

	c.mu.Lock()
	el, ok := c.elements[key]
	if !ok {
		c.mu.Unlock()
		c.misses.add(1)
		telemetry.SetAttributes(ctx, telemetry.CacheHit(false))
		return zero[V](), false
	}
	e := el.Value.(*entry[K, V])
	if now := time.Now(); c.expiredLocked(e, now) {
		cause := CauseTTL
		if c.cfg.IdleTimeout > 0 && now.Sub(e.lastAccess) > c.cfg.IdleTimeout {
			cause = CauseIdle
		}
		c.removeElementLocked(el, cause)
		c.mu.Unlock()
		c.misses.add(1)
		c.fireEviction(key, cause)
		telemetry.SetAttributes(ctx, telemetry.CacheHit(false))
		return zero[V](), false
	}
	e.lastAccess = time.Now()
	c.order.MoveToFront(el)
	value := e.value
	c.mu.Unlock()

	c.hits.add(1)
	telemetry.SetAttributes(ctx, telemetry.CacheHit(true))
	return value, true
}

// Insert adds or replaces the entry for key, evicting LRU entries first if
// the cache is at capacity.
func (c *BoundedCache[K, V]) Insert(key K, value V) {
	now := time.Now()
	var evicted []K

	c.mu.Lock()
	if el, ok := c.elements[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.insertedAt = now
		e.lastAccess = now
		c.order.MoveToFront(el)
		c.mu.Unlock()
		c.insertions.add(1)
		return
	}

	e := &entry[K, V]{key: key, value: value, insertedAt: now, lastAccess: now}
	el := c.order.PushFront(e)
	c.elements[key] = el

	for len(c.elements) > c.cfg.MaxEntries {
		back := c.order.Back()
		if back == nil {
			break
		}
		be := back.Value.(*entry[K, V])
		c.removeElementLocked(back, CauseCapacity)
		evicted = append(evicted, be.key)
	}
	c.mu.Unlock()

	c.insertions.add(1)
	for _, k := range evicted {
		c.fireEviction(k, CauseCapacity)
	}
}

// GetOrInsertWith returns the cached value for key, or calls init exactly
// once (even under concurrent callers for the same key) and caches the
// result. If init returns an error, nothing is cached and the next call
// retries.
func (c *BoundedCache[K, V]) GetOrInsertWith(ctx context.Context, key K, init func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	// Re-check: another caller may have finished the build while we waited.
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	v, err := init(ctx)
	if err != nil {
		return zero[V](), err
	}
	c.Insert(key, v)
	return v, nil
}

func (c *BoundedCache[K, V]) lockFor(key K) *sync.Mutex {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	l, ok := c.buildLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.buildLocks[key] = l
	}
	return l
}

// Remove explicitly evicts key, if present.
func (c *BoundedCache[K, V]) Remove(key K) {
	c.mu.Lock()
	el, ok := c.elements[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	c.removeElementLocked(el, CauseExplicit)
	c.mu.Unlock()
	c.fireEviction(key, CauseExplicit)
}

// Clear evicts every entry, firing the listener for each with CauseExplicit.
func (c *BoundedCache[K, V]) Clear() {
	c.mu.Lock()
	keys := make([]K, 0, len(c.elements))
	for k := range c.elements {
		keys = append(keys, k)
	}
	c.elements = make(map[K]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	for _, k := range keys {
		c.fireEviction(k, CauseExplicit)
	}
}

// Len returns the current entry count.
func (c *BoundedCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.elements)
}

// ReapExpired evicts idle/TTL-expired entries proactively. Callers may run
// this on a ticker; it is also applied lazily on Get.
func (c *BoundedCache[K, V]) ReapExpired() {
	now := time.Now()
	var evicted []K
	var causes []EvictionCause

	c.mu.Lock()
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*entry[K, V])
		if c.expiredLocked(e, now) {
			cause := CauseTTL
			if c.cfg.IdleTimeout > 0 && now.Sub(e.lastAccess) > c.cfg.IdleTimeout {
				cause = CauseIdle
			}
			c.removeElementLocked(el, cause)
			evicted = append(evicted, e.key)
			causes = append(causes, cause)
		}
		el = prev
	}
	c.mu.Unlock()

	for i, k := range evicted {
		c.fireEviction(k, causes[i])
	}
}

func (c *BoundedCache[K, V]) expiredLocked(e *entry[K, V], now time.Time) bool {
	if c.cfg.IdleTimeout > 0 && now.Sub(e.lastAccess) > c.cfg.IdleTimeout {
		return true
	}
	if c.cfg.TTL > 0 && now.Sub(e.insertedAt) > c.cfg.TTL {
		return true
	}
	return false
}

// removeElementLocked removes el from the index structures. Caller holds c.mu.
// It does not call the listener — that happens after unlocking.
func (c *BoundedCache[K, V]) removeElementLocked(el *list.Element, _ EvictionCause) {
	e := el.Value.(*entry[K, V])
	delete(c.elements, e.key)
	c.order.Remove(el)
}

func (c *BoundedCache[K, V]) fireEviction(key K, cause EvictionCause) {
	c.evictions.add(1)
	if c.listener != nil {
		c.listener(key, cause)
	}
}

// Status returns a snapshot of the cache's counters and current length.
func (c *BoundedCache[K, V]) Status() Stats {
	return Stats{
		Hits:       c.hits.load(),
		Misses:     c.misses.load(),
		Evictions:  c.evictions.load(),
		Insertions: c.insertions.load(),
		Len:        c.Len(),
	}
}

func zero[V any]() V {
	var z V
	return z
}
