// Package pool implements ConnectionPool: a per-profile pool of IndexStore
// handles, with a bounded size, a minimum number of idle
// handles kept warm, idle eviction, and a bounded acquisition wait: every
// Acquire call races the pool against a context timeout instead of
// blocking indefinitely.
package pool

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/store"
)

// Config configures every per-profile sub-pool.
type Config struct {
	MaxSize            int           `mapstructure:"max_size"`
	MinIdle            int           `mapstructure:"min_idle"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	AcquisitionTimeout time.Duration `mapstructure:"acquisition_timeout"`
}

// DefaultConfig returns the stock pool sizing.
func DefaultConfig() Config {
	return Config{MaxSize: 4, MinIdle: 1, IdleTimeout: 120 * time.Second, AcquisitionTimeout: 5 * time.Second}
}

// Opener builds a fresh IndexStore handle for a profile, typically
// store.Open bound to that profile's configured database path.
type Opener func(profile string) (*store.IndexStore, error)

// Pool is a ConnectionPool: one bounded sub-pool of IndexStore handles per
// profile, created lazily on first acquisition.
type Pool struct {
	cfg    Config
	opener Opener

	mu       sync.Mutex
	profiles map[string]*subPool
}

// New constructs a Pool. opener is invoked (outside any lock) whenever a new
// handle must be created.
func New(cfg Config, opener Opener) *Pool {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}
	if cfg.AcquisitionTimeout <= 0 {
		cfg.AcquisitionTimeout = DefaultConfig().AcquisitionTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultConfig().IdleTimeout
	}
	return &Pool{cfg: cfg, opener: opener, profiles: make(map[string]*subPool)}
}

type idleHandle struct {
	handle   *store.IndexStore
	idleFrom time.Time
}

type subPool struct {
	mu      sync.Mutex
	idle    *list.List // front = most recently returned
	total   int        // handles currently open (idle + in use)
	waiters chan struct{}
}

func (p *Pool) subPoolFor(profile string) *subPool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.profiles[profile]
	if !ok {
		sp = &subPool{idle: list.New(), waiters: make(chan struct{}, p.cfg.MaxSize)}
		p.profiles[profile] = sp
	}
	return sp
}

// Acquire returns a handle for profile, waiting up to AcquisitionTimeout for
// one to free up if the pool is at MaxSize. The caller MUST call Release
// exactly once with the same handle.
func (p *Pool) Acquire(ctx context.Context, profile string) (*store.IndexStore, error) {
	sp := p.subPoolFor(profile)

	acquireCtx, cancel := context.WithTimeout(ctx, p.cfg.AcquisitionTimeout)
	defer cancel()

	for {
		sp.mu.Lock()
		p.reapIdleLocked(sp)
		if el := sp.idle.Front(); el != nil {
			sp.idle.Remove(el)
			sp.mu.Unlock()
			return el.Value.(*idleHandle).handle, nil
		}
		if sp.total < p.cfg.MaxSize {
			sp.total++
			sp.mu.Unlock()
			h, err := p.opener(profile)
			if err != nil {
				sp.mu.Lock()
				sp.total--
				sp.mu.Unlock()
				return nil, errs.Wrap(errs.PoolError, "open index store handle", err).WithPath(profile)
			}
			return h, nil
		}
		sp.mu.Unlock()

		select {
		case <-acquireCtx.Done():
			return nil, errs.New(errs.PoolError, "acquisition timed out").WithPath(profile)
		case <-time.After(10 * time.Millisecond):
			// poll: a handle may have been released by another goroutine
		}
	}
}

// WithHandle acquires a handle, runs fn, and guarantees Release on every
// exit path.
func (p *Pool) WithHandle(ctx context.Context, profile string, fn func(*store.IndexStore) error) error {
	h, err := p.Acquire(ctx, profile)
	if err != nil {
		return err
	}
	defer p.Release(profile, h)
	return fn(h)
}

// Release returns h to profile's idle pool, or closes it outright if the
// idle pool already holds enough spares.
func (p *Pool) Release(profile string, h *store.IndexStore) {
	sp := p.subPoolFor(profile)

	sp.mu.Lock()
	if sp.idle.Len() >= p.cfg.MaxSize {
		sp.total--
		sp.mu.Unlock()
		_ = h.Close()
		return
	}
	sp.idle.PushFront(&idleHandle{handle: h, idleFrom: time.Now()})
	sp.mu.Unlock()
}

// reapIdleLocked closes idle handles beyond MinIdle that have sat unused
// longer than IdleTimeout. Caller holds sp.mu.
func (p *Pool) reapIdleLocked(sp *subPool) {
	now := time.Now()
	for sp.idle.Len() > p.cfg.MinIdle {
		back := sp.idle.Back()
		if back == nil {
			return
		}
		ih := back.Value.(*idleHandle)
		if now.Sub(ih.idleFrom) < p.cfg.IdleTimeout {
			return
		}
		sp.idle.Remove(back)
		sp.total--
		_ = ih.handle.Close()
	}
}

// CloseProfile closes every idle handle for profile and forgets the
// sub-pool, used on profile deletion.
func (p *Pool) CloseProfile(profile string) error {
	p.mu.Lock()
	sp, ok := p.profiles[profile]
	if ok {
		delete(p.profiles, profile)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()
	var firstErr error
	for el := sp.idle.Front(); el != nil; el = el.Next() {
		if err := el.Value.(*idleHandle).handle.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CloseAll closes every handle across every profile. Intended for test
// teardown and process shutdown.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	profiles := make([]string, 0, len(p.profiles))
	for name := range p.profiles {
		profiles = append(profiles, name)
	}
	p.mu.Unlock()

	var firstErr error
	for _, name := range profiles {
		if err := p.CloseProfile(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
