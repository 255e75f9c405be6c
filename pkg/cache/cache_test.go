package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedCache_InsertAndGet(t *testing.T) {
	c := New[string, int]("test", Config{MaxEntries: 5}, nil)
	c.Insert("a", 1)

	v, ok := c.Get(context.Background(), "a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get(context.Background(), "missing")
	assert.False(t, ok)
}

func TestBoundedCache_CapacityEviction(t *testing.T) {
	var evicted []string
	var mu sync.Mutex
	c := New[string, int]("test", Config{MaxEntries: 2}, func(key string, cause EvictionCause) {
		mu.Lock()
		defer mu.Unlock()
		evicted = append(evicted, key)
		assert.Equal(t, CauseCapacity, cause)
	})

	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3) // evicts "a", the LRU entry

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, evicted, 1)
	assert.Equal(t, "a", evicted[0])
	assert.Equal(t, 2, c.Len())
}

func TestBoundedCache_LRUOrderPreservedByGet(t *testing.T) {
	var evicted []string
	c := New[string, int]("test", Config{MaxEntries: 2}, func(key string, _ EvictionCause) {
		evicted = append(evicted, key)
	})

	c.Insert("a", 1)
	c.Insert("b", 2)
	_, _ = c.Get(context.Background(), "a") // "a" becomes most-recently-used
	c.Insert("c", 3)                        // evicts "b", not "a"

	require.Len(t, evicted, 1)
	assert.Equal(t, "b", evicted[0])
}

func TestBoundedCache_GetOrInsertWith_CalledOnce(t *testing.T) {
	c := New[string, int]("test", Config{MaxEntries: 5}, nil)

	var calls atomic.Int32
	const goroutines = 50

	var wg sync.WaitGroup
	results := make([]int, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, err := c.GetOrInsertWith(context.Background(), "key", func(ctx context.Context) (int, error) {
				calls.Add(1)
				time.Sleep(5 * time.Millisecond)
				return 42, nil
			})
			require.NoError(t, err)
			results[idx] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestBoundedCache_GetOrInsertWith_ErrorNotCached(t *testing.T) {
	c := New[string, int]("test", Config{MaxEntries: 5}, nil)

	var calls int
	failing := errors.New("boom")
	_, err := c.GetOrInsertWith(context.Background(), "key", func(ctx context.Context) (int, error) {
		calls++
		return 0, failing
	})
	require.ErrorIs(t, err, failing)

	v, err := c.GetOrInsertWith(context.Background(), "key", func(ctx context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestBoundedCache_IdleEviction(t *testing.T) {
	var evicted []string
	c := New[string, int]("test", Config{MaxEntries: 5, IdleTimeout: 10 * time.Millisecond}, func(key string, cause EvictionCause) {
		evicted = append(evicted, key)
		assert.Equal(t, CauseIdle, cause)
	})

	c.Insert("a", 1)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(context.Background(), "a")
	assert.False(t, ok)
	require.Len(t, evicted, 1)
}

func TestBoundedCache_ExplicitRemoveAndClear(t *testing.T) {
	var evicted []EvictionCause
	c := New[string, int]("test", Config{MaxEntries: 5}, func(_ string, cause EvictionCause) {
		evicted = append(evicted, cause)
	})

	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Remove("a")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []EvictionCause{CauseExplicit, CauseExplicit}, evicted)
}

func TestBoundedCache_StatsHitRate(t *testing.T) {
	c := New[string, int]("test", Config{MaxEntries: 5}, nil)
	c.Insert("a", 1)

	_, _ = c.Get(context.Background(), "a")
	_, _ = c.Get(context.Background(), "a")
	_, _ = c.Get(context.Background(), "missing")

	stats := c.Status()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate(), 0.0001)
}

func TestStats_HitRate_UndefinedIsZero(t *testing.T) {
	assert.Equal(t, float64(0), Stats{}.HitRate())
}
