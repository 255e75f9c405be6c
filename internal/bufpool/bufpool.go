// Package bufpool provides a tiered buffer pool for the transfer engine.
//
// Multipart upload parts (10 MiB) and streamed-download chunks (1 MiB) are
// allocated and reused from here instead of per-call, so a long-running
// upload/download does not generate a fresh large slice on every part/chunk.
//
// # Thread Safety
//
// All operations are safe for concurrent use via sync.Pool. Each transfer
// task still owns the buffer it Gets until it Puts it back — buffers are
// never shared between concurrent part uploads.
package bufpool

import "sync"

// Default tier sizes for transfer I/O.
const (
	// DefaultChunkSize matches the download engine's streaming chunk size.
	DefaultChunkSize = 1 << 20 // 1 MiB

	// DefaultPartSize matches the upload engine's fixed multipart part size.
	DefaultPartSize = 10 << 20 // 10 MiB
)

// Pool manages download-chunk and upload-part buffer tiers.
type Pool struct {
	chunk     sync.Pool
	part      sync.Pool
	chunkSize int
	partSize  int
}

// Config configures a custom Pool.
type Config struct {
	ChunkSize int
	PartSize  int
}

// DefaultConfig returns the default tier sizes.
func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize, PartSize: DefaultPartSize}
}

// NewPool builds a Pool. A nil cfg uses DefaultConfig.
func NewPool(cfg *Config) *Pool {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.PartSize <= 0 {
		cfg.PartSize = DefaultPartSize
	}

	p := &Pool{chunkSize: cfg.ChunkSize, partSize: cfg.PartSize}
	p.chunk = sync.Pool{New: func() any {
		buf := make([]byte, p.chunkSize)
		return &buf
	}}
	p.part = sync.Pool{New: func() any {
		buf := make([]byte, p.partSize)
		return &buf
	}}
	return p
}

// GetChunk returns a reusable download-chunk buffer sized to the chunk tier.
func (p *Pool) GetChunk() []byte {
	bufPtr := p.chunk.Get().(*[]byte)
	return (*bufPtr)[:p.chunkSize]
}

// PutChunk returns a chunk buffer to the pool.
func (p *Pool) PutChunk(buf []byte) {
	if cap(buf) != p.chunkSize {
		return
	}
	full := buf[:cap(buf)]
	p.chunk.Put(&full)
}

// GetPart returns a reusable multipart-upload-part buffer, truncated to size
// (size must be <= the part tier size; the final part of an upload is
// usually smaller than a full part).
func (p *Pool) GetPart(size int) []byte {
	bufPtr := p.part.Get().(*[]byte)
	buf := *bufPtr
	if size > len(buf) {
		// Larger than the configured part size: allocate directly, don't pool it.
		return make([]byte, size)
	}
	return buf[:size]
}

// PutPart returns a part buffer to the pool.
func (p *Pool) PutPart(buf []byte) {
	if cap(buf) != p.partSize {
		return
	}
	full := buf[:cap(buf)]
	p.part.Put(&full)
}

var global = NewPool(nil)

// GetChunk returns a download-chunk buffer from the global pool.
func GetChunk() []byte { return global.GetChunk() }

// PutChunk returns a chunk buffer to the global pool.
func PutChunk(buf []byte) { global.PutChunk(buf) }

// GetPart returns an upload-part buffer from the global pool.
func GetPart(size int) []byte { return global.GetPart(size) }

// PutPart returns a part buffer to the global pool.
func PutPart(buf []byte) { global.PutPart(buf) }
