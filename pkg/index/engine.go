// Package index implements the IndexEngine: initial bucket
// indexation, incremental updates from S3 listings, and the post-mutation
// reconciliation hooks that keep the local IndexStore consistent under
// partial knowledge of a bucket's contents.
//
// Cancellation is a level-triggered receive-only channel probed between
// units of work (each listing page), never mid-page.
package index

import (
	"context"
	"time"

	"github.com/AccessDevops/S3Explorer/internal/logger"
	"github.com/AccessDevops/S3Explorer/internal/telemetry"
	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/gateway"
	"github.com/AccessDevops/S3Explorer/pkg/model"
	"github.com/AccessDevops/S3Explorer/pkg/store"
)

// IndexingConfig configures one initial_index_bucket run.
type IndexingConfig struct {
	// MaxInitialRequests bounds the number of list_objects_v2 calls made.
	// Zero (or negative) means unlimited.
	MaxInitialRequests int
	// BatchSize is the page size requested per list_objects_v2 call, 1..1000.
	BatchSize int32
	// StaleTTLHours feeds PurgeStaleObjects' default window for this bucket.
	StaleTTLHours int
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *IndexingConfig) ApplyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 1000
	}
	if c.BatchSize > 1000 {
		c.BatchSize = 1000
	}
	if c.StaleTTLHours <= 0 {
		c.StaleTTLHours = 720
	}
}

// ProgressFunc reports cumulative indexing progress during a run.
type ProgressFunc func(totalIndexed int64, requestsMade, maxInitialRequests int)

// InitialIndexResult is the outcome of InitialIndexBucket.
type InitialIndexResult struct {
	TotalIndexed      int64
	IsComplete        bool
	RequestsMade      int
	ContinuationToken string
	LastKey           string
	TotalSize         int64
	Error             string // "Cancelled by user" or ""
}

// Engine is the IndexEngine: it drives an S3Gateway to populate and
// reconcile a profile's IndexStore.
type Engine struct {
	gw gateway.Gateway
	st *store.IndexStore
}

// New builds an Engine over gw (the S3 capability surface) and st (this
// profile's IndexStore handle).
func New(gw gateway.Gateway, st *store.IndexStore) *Engine {
	return &Engine{gw: gw, st: st}
}

func translate(bucket string, o gateway.ObjectSummary) *model.IndexedObject {
	return &model.IndexedObject{
		Bucket:       bucket,
		Key:          o.Key,
		Size:         o.Size,
		LastModified: o.LastModified,
		ETag:         o.ETag,
		StorageClass: o.StorageClass,
	}
}

// cancelled reports whether cancel has fired, without blocking.
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

// InitialIndexBucket performs the bucket's initial indexation loop
//: paginate list_objects_v2 without a delimiter, batch-upsert
// each page, and report cumulative progress, stopping on exhaustion,
// cancellation, or the configured request cap.
func (e *Engine) InitialIndexBucket(ctx context.Context, bucket string, cfg IndexingConfig, progress ProgressFunc, cancel <-chan struct{}) (*InitialIndexResult, error) {
	cfg.ApplyDefaults()

	ctx, span := telemetry.StartIndexSpan(ctx, "initial_index_bucket", bucket)
	defer span.End()
	log := logger.FromCtx(ctx)

	result := &InitialIndexResult{}
	var continuationToken string

	for {
		if cancelled(cancel) {
			result.Error = "Cancelled by user"
			break
		}
		if cfg.MaxInitialRequests > 0 && result.RequestsMade >= cfg.MaxInitialRequests {
			break
		}

		page, err := e.gw.ListObjectsV2(ctx, gateway.ListObjectsInput{
			Bucket:            bucket,
			ContinuationToken: continuationToken,
			MaxKeys:           cfg.BatchSize,
		})
		result.RequestsMade++
		if err != nil {
			return nil, err
		}

		rows := make([]*model.IndexedObject, 0, len(page.Objects))
		for _, o := range page.Objects {
			if o.IsPrefix {
				continue
			}
			rows = append(rows, translate(bucket, o))
			result.TotalSize += o.Size
			if o.Key > result.LastKey {
				result.LastKey = o.Key
			}
		}
		if len(rows) > 0 {
			if _, err := e.st.UpsertObjectsBatch(rows); err != nil {
				return nil, err
			}
		}
		result.TotalIndexed += int64(len(rows))
		continuationToken = page.NextContinuationToken

		if progress != nil {
			progress(result.TotalIndexed, result.RequestsMade, cfg.MaxInitialRequests)
		}

		if !page.IsTruncated || continuationToken == "" {
			result.IsComplete = true
			break
		}
	}
	result.ContinuationToken = continuationToken
	result.IsComplete = result.IsComplete && result.Error == ""

	if result.IsComplete {
		if err := e.finalizeComplete(ctx, bucket); err != nil {
			return nil, err
		}
	} else {
		if err := e.discoverTopLevelFolders(ctx, bucket); err != nil {
			log.Warn("initial index: discover top-level folders failed", "bucket", bucket, "error", err)
		}
	}

	now := time.Now()
	if err := e.st.UpsertPrefixStatus(&model.PrefixStatus{
		Bucket: bucket, Prefix: "", IsComplete: result.IsComplete,
		ContinuationToken: continuationToken, LastIndexedKey: result.LastKey,
		LastSyncStartedAt: &now, LastSyncCompletedAt: &now,
	}); err != nil {
		return nil, err
	}
	if err := e.st.UpsertBucketInfo(&model.BucketInfo{
		Bucket: bucket, InitialIndexRequests: result.RequestsMade,
		InitialIndexCompleted: result.IsComplete, LastCheckedAt: &now,
	}); err != nil {
		return nil, err
	}

	log.Info("initial index bucket finished", "bucket", bucket, "total_indexed", result.TotalIndexed,
		"is_complete", result.IsComplete, "requests_made", result.RequestsMade)
	if result.Error != "" {
		return result, nil
	}
	return result, nil
}

// finalizeComplete computes per-prefix stats for a fully-indexed bucket and
// batch-upserts one complete PrefixStatus per non-empty parent_prefix
//.
func (e *Engine) finalizeComplete(ctx context.Context, bucket string) error {
	stats, err := e.st.CalculateAllPrefixStatsBatch(bucket)
	if err != nil {
		return err
	}
	now := time.Now()
	rows := make([]*model.PrefixStatus, 0, len(stats))
	for prefix, s := range stats {
		if prefix == "" {
			continue
		}
		rows = append(rows, &model.PrefixStatus{
			Bucket: bucket, Prefix: prefix, IsComplete: true,
			ObjectsCount: s.Count, TotalSize: s.Size,
			LastSyncStartedAt: &now, LastSyncCompletedAt: &now,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return e.st.BatchUpsertPrefixStatus(rows)
}

// discoverTopLevelFolders issues one extra delimited listing at the root to
// find first-level common prefixes when the bucket's initial index did not
// complete.
func (e *Engine) discoverTopLevelFolders(ctx context.Context, bucket string) error {
	page, err := e.gw.ListObjectsV2(ctx, gateway.ListObjectsInput{Bucket: bucket, Delimiter: "/", MaxKeys: 1000})
	if err != nil {
		return err
	}
	var rows []*model.PrefixStatus
	for _, o := range page.Objects {
		if !o.IsPrefix {
			continue
		}
		rows = append(rows, &model.PrefixStatus{Bucket: bucket, Prefix: o.Key, IsComplete: false})
	}
	if len(rows) == 0 {
		return nil
	}
	return e.st.BatchUpsertPrefixStatus(rows)
}

// UpdateFromListResponse folds one already-fetched listing page into the
// store: batch-upsert its objects, materialize a PrefixStatus for each
// common prefix discovered, and recompute the listed prefix's own
// PrefixStatus row.
func (e *Engine) UpdateFromListResponse(ctx context.Context, bucket, prefix string, page *gateway.ListObjectsOutput) error {
	ctx, span := telemetry.StartIndexSpan(ctx, "update_from_list_response", bucket, telemetry.Prefix(prefix))
	defer span.End()

	var rows []*model.IndexedObject
	var lastKey string
	var prefixRows []*model.PrefixStatus
	for _, o := range page.Objects {
		if o.IsPrefix {
			prefixRows = append(prefixRows, &model.PrefixStatus{Bucket: bucket, Prefix: o.Key, IsComplete: false})
			continue
		}
		rows = append(rows, translate(bucket, o))
		if o.Key > lastKey {
			lastKey = o.Key
		}
	}
	if len(rows) > 0 {
		if _, err := e.st.UpsertObjectsBatch(rows); err != nil {
			return err
		}
	}
	if len(prefixRows) > 0 {
		if err := e.st.BatchUpsertPrefixStatus(prefixRows); err != nil {
			return err
		}
	}

	count, size, err := e.st.CalculatePrefixStats(bucket, prefix)
	if err != nil {
		return err
	}
	now := time.Now()
	return e.st.UpsertPrefixStatus(&model.PrefixStatus{
		Bucket: bucket, Prefix: prefix, IsComplete: !page.IsTruncated,
		ObjectsCount: count, TotalSize: size,
		ContinuationToken: page.NextContinuationToken, LastIndexedKey: lastKey,
		LastSyncStartedAt: &now, LastSyncCompletedAt: &now,
	})
}

// AddObject upserts o and marks its ancestor prefixes incomplete.
func (e *Engine) AddObject(ctx context.Context, o *model.IndexedObject) error {
	ctx, span := telemetry.StartIndexSpan(ctx, "add_object", o.Bucket, telemetry.ObjectKey(o.Key))
	defer span.End()

	if _, err := e.st.UpsertObject(o); err != nil {
		return err
	}
	return e.st.MarkPrefixAndAncestorsIncomplete(o.Bucket, o.ParentPrefix)
}

// RemoveObject deletes the row for (bucket, key) if present and marks
// ancestors incomplete regardless, since an external deletion also shifts
// stats even if the row wasn't indexed.
func (e *Engine) RemoveObject(ctx context.Context, bucket, key string) error {
	ctx, span := telemetry.StartIndexSpan(ctx, "remove_object", bucket, telemetry.ObjectKey(key))
	defer span.End()

	if _, err := e.st.DeleteObject(bucket, key); err != nil {
		return err
	}
	parent, _, _, _, _ := model.DeriveKeyParts(key)
	return e.st.MarkPrefixAndAncestorsIncomplete(bucket, parent)
}

// RemoveFolder deletes every object under prefix, marks ancestors
// incomplete, and deletes the prefix's own status row.
func (e *Engine) RemoveFolder(ctx context.Context, bucket, prefix string) error {
	ctx, span := telemetry.StartIndexSpan(ctx, "remove_folder", bucket, telemetry.Prefix(prefix))
	defer span.End()

	if _, err := e.st.DeleteObjectsByPrefix(bucket, prefix); err != nil {
		return err
	}
	if err := e.st.MarkPrefixAndAncestorsIncomplete(bucket, model.ParentOf(prefix)); err != nil {
		return err
	}
	return e.st.DeletePrefixStatus(bucket, prefix)
}

// SyncPrefixObjects reconciles the store's view of prefix against
// currentKeys (the authoritative listing), marking ancestors incomplete and
// cleaning up orphan prefix rows if anything was deleted.
func (e *Engine) SyncPrefixObjects(ctx context.Context, bucket, prefix string, currentKeys []string) (int64, error) {
	ctx, span := telemetry.StartIndexSpan(ctx, "sync_prefix_objects", bucket, telemetry.Prefix(prefix))
	defer span.End()

	deleted, err := e.st.SyncPrefixObjects(bucket, prefix, currentKeys)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		if err := e.st.MarkPrefixAndAncestorsIncomplete(bucket, prefix); err != nil {
			return deleted, err
		}
		if _, err := e.st.CleanupOrphanPrefixStatus(bucket); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// GetBucketStats returns the bucket's aggregate object count, size, and
// completeness.
func (e *Engine) GetBucketStats(bucket string) (store.BucketStats, error) {
	return e.st.CalculateBucketStats(bucket)
}

// GetPrefixStats returns (count, size) of non-folder objects under prefix,
// at any depth.
func (e *Engine) GetPrefixStats(bucket, prefix string) (int64, int64, error) {
	return e.st.CalculatePrefixStats(bucket, prefix)
}

// CalculateFolderSize returns the total size under prefix and whether that
// figure is known-complete.
func (e *Engine) CalculateFolderSize(bucket, prefix string) (int64, bool, error) {
	_, size, err := e.st.CalculatePrefixStats(bucket, prefix)
	if err != nil {
		return 0, false, err
	}
	complete, err := e.st.IsPrefixComplete(bucket, prefix)
	if err != nil {
		return 0, false, err
	}
	return size, complete, nil
}

// SearchObjects delegates to the IndexStore's substring search.
func (e *Engine) SearchObjects(bucket, substr, prefix string, limit int) ([]*model.IndexedObject, error) {
	return e.st.SearchObjects(bucket, substr, prefix, limit)
}

// GetAllBucketIndexes delegates to the IndexStore's per-bucket summary scan.
func (e *Engine) GetAllBucketIndexes() ([]store.BucketIndexSummary, error) {
	return e.st.GetAllBucketIndexes()
}

// IsPrefixComplete delegates to the IndexStore's completeness decision.
func (e *Engine) IsPrefixComplete(bucket, prefix string) (bool, error) {
	return e.st.IsPrefixComplete(bucket, prefix)
}

// ErrCancelled is returned by callers that want a typed sentinel for a
// cancelled indexing run instead of inspecting InitialIndexResult.Error.
var ErrCancelled = errs.New(errs.IndexError, "indexing cancelled by user")
