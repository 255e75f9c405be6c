package bufpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetChunk_SizedToTier(t *testing.T) {
	p := NewPool(&Config{ChunkSize: 64, PartSize: 128})

	buf := p.GetChunk()
	assert.Len(t, buf, 64)
	p.PutChunk(buf)
}

func TestGetPart_TruncatesToRequestedSize(t *testing.T) {
	p := NewPool(&Config{ChunkSize: 64, PartSize: 128})

	buf := p.GetPart(100)
	assert.Len(t, buf, 100)
	assert.Equal(t, 128, cap(buf))
	p.PutPart(buf)
}

func TestGetPart_OversizeAllocatesOutsidePool(t *testing.T) {
	p := NewPool(&Config{ChunkSize: 64, PartSize: 128})

	buf := p.GetPart(256)
	assert.Len(t, buf, 256)
	// returning it is a no-op; the pool's tier size is unchanged
	p.PutPart(buf)
	again := p.GetPart(128)
	assert.Equal(t, 128, cap(again))
}

func TestNewPool_NilConfigUsesDefaults(t *testing.T) {
	p := NewPool(nil)
	assert.Len(t, p.GetChunk(), DefaultChunkSize)
	assert.Len(t, p.GetPart(DefaultPartSize), DefaultPartSize)
}
