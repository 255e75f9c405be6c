// Package transfer implements the TransferEngine: streamed
// download and threshold-based multipart upload, with retry-tolerant
// per-task buffer reuse, cooperative cancellation, and throttled progress
// events. Buffers come from a sync.Pool sized to the fixed 10MiB multipart
// part and 1MiB download chunk tiers; cancellation is checked between units
// of work (each part, each chunk), never mid-unit.
package transfer

import (
	"context"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/AccessDevops/S3Explorer/internal/bufpool"
	"github.com/AccessDevops/S3Explorer/internal/logger"
	"github.com/AccessDevops/S3Explorer/internal/telemetry"
	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/events"
	"github.com/AccessDevops/S3Explorer/pkg/gateway"
	"github.com/AccessDevops/S3Explorer/pkg/model"
)

// Default transfer sizing.
const (
	DefaultMultipartThreshold = 50 << 20 // 50 MiB
	DefaultPartSize           = 10 << 20 // 10 MiB
	DefaultDownloadChunkSize  = 1 << 20  // 1 MiB

	// progressThrottle is the minimum interval between download progress
	// events.
	progressThrottle = 100 * time.Millisecond
)

// IndexHook is the subset of IndexEngine the TransferEngine calls into after
// a successful mutation, kept as a narrow interface so transfer doesn't
// import pkg/index directly.
type IndexHook interface {
	AddObject(ctx context.Context, o *model.IndexedObject) error
}

// Config configures the multipart threshold and fixed part size.
type Config struct {
	Threshold int64
	PartSize  int64
	ChunkSize int64
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = DefaultMultipartThreshold
	}
	if c.PartSize <= 0 {
		c.PartSize = DefaultPartSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultDownloadChunkSize
	}
}

// Engine is the TransferEngine: it drives an S3Gateway for chunked
// upload/download, reconciling the index on success via IndexHook.
type Engine struct {
	gw   gateway.Gateway
	idx  IndexHook
	cfg  Config
	pool *bufpool.Pool
}

// New builds an Engine. A nil idx disables the post-upload index hook
// (useful for tests exercising transfer in isolation).
func New(gw gateway.Gateway, idx IndexHook, cfg Config) *Engine {
	cfg.ApplyDefaults()
	poolCfg := bufpool.Config{ChunkSize: int(cfg.ChunkSize), PartSize: int(cfg.PartSize)}
	return &Engine{gw: gw, idx: idx, cfg: cfg, pool: bufpool.NewPool(&poolCfg)}
}

func cancelled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

// UploadInput names a local file to push to (bucket, key).
type UploadInput struct {
	Bucket      string
	Key         string
	FilePath    string
	ContentType string
}

// UploadProgressFunc receives throttled upload progress events.
type UploadProgressFunc func(events.UploadProgress)

// UploadFile uploads the file at in.FilePath to (in.Bucket, in.Key),
// choosing a single put_object for files under the configured threshold and
// a multipart upload above it. Returns the bytes uploaded, so the caller
// can carry the count into its terminal metric; on failure or cancellation
// the count covers the parts that made it out.
func (e *Engine) UploadFile(ctx context.Context, transferID string, in UploadInput, progress UploadProgressFunc, cancel <-chan struct{}) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "transfer.upload_file")
	defer span.End()
	log := logger.FromCtx(ctx)

	info, err := os.Stat(in.FilePath)
	if err != nil {
		return 0, errs.Wrap(errs.IoError, "stat upload source", err).WithPath(in.FilePath)
	}
	size := info.Size()

	emit := func(p events.UploadProgress) {
		if progress != nil {
			progress(p)
		}
	}
	emit(events.UploadProgress{TransferID: transferID, Bucket: in.Bucket, Key: in.Key, TotalBytes: size, Status: events.StatusStarting})

	var uploaded int64
	var uploadErr error
	if size < e.cfg.Threshold {
		uploaded, uploadErr = e.uploadSmall(ctx, transferID, in, size, emit, cancel)
	} else {
		uploaded, uploadErr = e.uploadMultipart(ctx, transferID, in, size, emit, cancel)
	}

	if uploadErr != nil {
		if uploadErr == errCancelledByUser {
			emit(events.UploadProgress{TransferID: transferID, Bucket: in.Bucket, Key: in.Key, TotalBytes: size, Status: events.StatusCancelled})
			return uploaded, nil
		}
		log.Error("upload failed", "bucket", in.Bucket, "key", in.Key, "error", uploadErr)
		emit(events.UploadProgress{TransferID: transferID, Bucket: in.Bucket, Key: in.Key, TotalBytes: size, Status: events.StatusFailed, Error: uploadErr.Error()})
		return uploaded, uploadErr
	}

	if e.idx != nil {
		now := time.Now()
		if hookErr := e.idx.AddObject(ctx, &model.IndexedObject{
			Bucket: in.Bucket, Key: in.Key, Size: size, ContentType: in.ContentType,
			IndexedAt: now.UnixMilli(),
		}); hookErr != nil {
			// Index-hook failures after a successful S3 mutation are
			// recovered locally, never failing the user operation.
			log.Warn("post-upload index hook failed", "bucket", in.Bucket, "key", in.Key, "error", hookErr)
		}
	}

	emit(events.UploadProgress{TransferID: transferID, Bucket: in.Bucket, Key: in.Key, UploadedBytes: size, TotalBytes: size, Percentage: 100, Status: events.StatusCompleted})
	log.Info("upload completed", "bucket", in.Bucket, "key", in.Key, "size", humanize.Bytes(uint64(size)))
	return uploaded, nil
}

var errCancelledByUser = errs.New(errs.IndexError, "cancelled by user")

func (e *Engine) uploadSmall(ctx context.Context, transferID string, in UploadInput, size int64, emit func(events.UploadProgress), cancel <-chan struct{}) (int64, error) {
	if cancelled(cancel) {
		return 0, errCancelledByUser
	}
	data, err := os.ReadFile(in.FilePath)
	if err != nil {
		return 0, errs.Wrap(errs.IoError, "read upload source", err).WithPath(in.FilePath)
	}
	if _, err := e.gw.PutObject(ctx, gateway.PutObjectInput{Bucket: in.Bucket, Key: in.Key, Body: data, ContentType: in.ContentType}); err != nil {
		return 0, err
	}
	emit(events.UploadProgress{TransferID: transferID, Bucket: in.Bucket, Key: in.Key, UploadedBytes: size, TotalBytes: size, UploadedParts: 1, TotalParts: 1, Percentage: 100, Status: events.StatusUploading})
	return int64(len(data)), nil
}

func (e *Engine) uploadMultipart(ctx context.Context, transferID string, in UploadInput, size int64, emit func(events.UploadProgress), cancel <-chan struct{}) (int64, error) {
	uploadID, err := e.gw.CreateMultipartUpload(ctx, in.Bucket, in.Key)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(in.FilePath)
	if err != nil {
		return 0, errs.Wrap(errs.IoError, "open upload source", err).WithPath(in.FilePath)
	}
	defer f.Close()

	totalParts := int((size + e.cfg.PartSize - 1) / e.cfg.PartSize)
	parts := make([]gateway.CompletedPart, 0, totalParts)
	var uploaded int64
	start := time.Now()

	abort := func() {
		_ = e.gw.AbortMultipartUpload(ctx, in.Bucket, in.Key, uploadID)
	}

	for n := 1; n <= totalParts; n++ {
		if cancelled(cancel) {
			abort()
			return uploaded, errCancelledByUser
		}

		offset := int64(n-1) * e.cfg.PartSize
		want := e.cfg.PartSize
		if remaining := size - offset; remaining < want {
			want = remaining
		}

		reusable := e.pool.GetPart(int(want))
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			e.pool.PutPart(reusable)
			abort()
			return uploaded, errs.Wrap(errs.IoError, "seek upload source", err).WithPath(in.FilePath)
		}
		if _, err := io.ReadFull(f, reusable); err != nil {
			e.pool.PutPart(reusable)
			abort()
			return uploaded, errs.Wrap(errs.IoError, "read upload part", err).WithPath(in.FilePath)
		}

		// A fresh owned buffer is materialized for the UploadPart call so
		// the reusable buffer can be returned to the pool immediately.
		owned := make([]byte, len(reusable))
		copy(owned, reusable)
		e.pool.PutPart(reusable)

		etag, err := e.gw.UploadPart(ctx, gateway.UploadPartInput{Bucket: in.Bucket, Key: in.Key, UploadID: uploadID, PartNumber: int32(n), Body: owned})
		if err != nil {
			abort()
			return uploaded, err
		}
		parts = append(parts, gateway.CompletedPart{PartNumber: int32(n), ETag: etag})
		uploaded += int64(len(owned))

		elapsed := time.Since(start).Seconds()
		var bps float64
		if elapsed > 0 {
			bps = float64(uploaded) / elapsed
		}
		emit(events.UploadProgress{
			TransferID: transferID, Bucket: in.Bucket, Key: in.Key,
			UploadedBytes: uploaded, TotalBytes: size,
			UploadedParts: n, TotalParts: totalParts,
			Percentage: 100 * float64(uploaded) / float64(size),
			BytesPerSecond: bps, Status: events.StatusUploading,
		})
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	if err := e.gw.CompleteMultipartUpload(ctx, gateway.CompleteMultipartInput{Bucket: in.Bucket, Key: in.Key, UploadID: uploadID, Parts: parts}); err != nil {
		abort()
		return uploaded, errs.S3(errs.MultipartUploadFailed, "complete multipart upload", err).WithPath(in.Bucket + "/" + in.Key)
	}
	return uploaded, nil
}

// DownloadProgressFunc receives throttled download progress events.
type DownloadProgressFunc func(events.DownloadProgress)

// DownloadFile streams (bucket, key) to destPath in fixed-size chunks,
// emitting throttled progress and removing the partial file on cancellation.
// Returns the bytes downloaded for the caller's terminal metric.
func (e *Engine) DownloadFile(ctx context.Context, transferID, bucket, key, destPath string, progress DownloadProgressFunc, cancel <-chan struct{}) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "transfer.download_file")
	defer span.End()
	log := logger.FromCtx(ctx)

	emit := func(p events.DownloadProgress) {
		if progress != nil {
			progress(p)
		}
	}
	emit(events.DownloadProgress{TransferID: transferID, Bucket: bucket, Key: key, Status: events.StatusStarting})

	var totalBytes int64
	if meta, err := e.gw.HeadObject(ctx, bucket, key); err == nil {
		totalBytes = meta.Size
	}

	stream, meta, err := e.gw.GetObjectStream(ctx, bucket, key, 0, 0)
	if err != nil {
		emit(events.DownloadProgress{TransferID: transferID, Bucket: bucket, Key: key, Status: events.StatusFailed, Error: err.Error()})
		return 0, err
	}
	defer stream.Close()
	if totalBytes == 0 {
		totalBytes = meta.Size
	}

	dest, err := os.Create(destPath)
	if err != nil {
		return 0, errs.Wrap(errs.IoError, "create download destination", err).WithPath(destPath)
	}

	buf := e.pool.GetChunk()
	defer e.pool.PutChunk(buf)

	var downloaded int64
	start := time.Now()
	lastEmit := start

	fail := func(err error) error {
		dest.Close()
		os.Remove(destPath)
		return err
	}

	for {
		if cancelled(cancel) {
			dest.Close()
			os.Remove(destPath)
			emit(events.DownloadProgress{TransferID: transferID, Bucket: bucket, Key: key, DownloadedBytes: downloaded, TotalBytes: totalBytes, Status: events.StatusCancelled})
			return downloaded, nil
		}

		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, writeErr := dest.Write(buf[:n]); writeErr != nil {
				return downloaded, fail(errs.Wrap(errs.IoError, "write download destination", writeErr).WithPath(destPath))
			}
			downloaded += int64(n)

			if time.Since(lastEmit) >= progressThrottle {
				elapsed := time.Since(start).Seconds()
				var bps float64
				if elapsed > 0 {
					bps = float64(downloaded) / elapsed
				}
				emit(events.DownloadProgress{
					TransferID: transferID, Bucket: bucket, Key: key,
					DownloadedBytes: downloaded, TotalBytes: totalBytes,
					Percentage: percentOf(downloaded, totalBytes), BytesPerSecond: bps,
					Status: events.StatusDownloading,
				})
				lastEmit = time.Now()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return downloaded, fail(errs.Wrap(errs.IoError, "read download stream", readErr).WithPath(bucket + "/" + key))
		}
	}

	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return downloaded, errs.Wrap(errs.IoError, "close download destination", err).WithPath(destPath)
	}

	elapsed := time.Since(start).Seconds()
	var bps float64
	if elapsed > 0 {
		bps = float64(downloaded) / elapsed
	}
	emit(events.DownloadProgress{
		TransferID: transferID, Bucket: bucket, Key: key,
		DownloadedBytes: downloaded, TotalBytes: downloaded, Percentage: 100,
		BytesPerSecond: bps, Status: events.StatusCompleted,
	})
	log.Info("download completed", "bucket", bucket, "key", key, "size", humanize.Bytes(uint64(downloaded)))
	return downloaded, nil
}

func percentOf(n, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
