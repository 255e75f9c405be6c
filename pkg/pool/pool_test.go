package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccessDevops/S3Explorer/pkg/store"
)

func testOpener(t *testing.T) Opener {
	return func(profile string) (*store.IndexStore, error) {
		return store.Open(profile, store.Config{Path: ":memory:"})
	}
}

func TestPool_AcquireRelease_ReusesHandle(t *testing.T) {
	p := New(Config{MaxSize: 2, MinIdle: 0, AcquisitionTimeout: time.Second}, testOpener(t))

	h1, err := p.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	p.Release("p1", h1)

	h2, err := p.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	assert.Same(t, h1, h2)
}

func TestPool_AcquireTimeout_WhenExhausted(t *testing.T) {
	p := New(Config{MaxSize: 1, MinIdle: 0, AcquisitionTimeout: 50 * time.Millisecond}, testOpener(t))

	h1, err := p.Acquire(context.Background(), "p1")
	require.NoError(t, err)

	_, err = p.Acquire(context.Background(), "p1")
	require.Error(t, err)

	p.Release("p1", h1)
}

func TestPool_WithHandle_ReleasesOnError(t *testing.T) {
	p := New(Config{MaxSize: 1, MinIdle: 0, AcquisitionTimeout: time.Second}, testOpener(t))

	callErr := assertErr{}
	err := p.WithHandle(context.Background(), "p1", func(h *store.IndexStore) error {
		return callErr
	})
	assert.Equal(t, callErr, err)

	// the handle must have been released despite the error
	h, err := p.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	p.Release("p1", h)
}

func TestPool_DistinctProfilesIndependent(t *testing.T) {
	p := New(Config{MaxSize: 1, MinIdle: 0, AcquisitionTimeout: time.Second}, testOpener(t))

	h1, err := p.Acquire(context.Background(), "p1")
	require.NoError(t, err)
	h2, err := p.Acquire(context.Background(), "p2")
	require.NoError(t, err)
	assert.NotSame(t, h1, h2)

	p.Release("p1", h1)
	p.Release("p2", h2)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
