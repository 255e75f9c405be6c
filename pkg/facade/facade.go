// Package facade implements CommandFacade: the async
// request/response command surface exposed to a UI. It validates inputs,
// looks up profiles, composes S3Gateway + IndexEngine + TransferEngine per
// profile, maintains the active_uploads/active_downloads/active_indexing
// registries, routes outcomes to MetricsSink, and emits events.Emitter
// events. No lock is ever held across a blocking call.
package facade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AccessDevops/S3Explorer/internal/logger"
	"github.com/AccessDevops/S3Explorer/internal/telemetry"
	"github.com/AccessDevops/S3Explorer/pkg/cache"
	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/events"
	"github.com/AccessDevops/S3Explorer/pkg/gateway"
	"github.com/AccessDevops/S3Explorer/pkg/index"
	"github.com/AccessDevops/S3Explorer/pkg/metrics"
	"github.com/AccessDevops/S3Explorer/pkg/model"
	"github.com/AccessDevops/S3Explorer/pkg/pool"
	"github.com/AccessDevops/S3Explorer/pkg/profile"
	"github.com/AccessDevops/S3Explorer/pkg/store"
	"github.com/AccessDevops/S3Explorer/pkg/transfer"
	"github.com/AccessDevops/S3Explorer/pkg/validate"
)

// connection bundles one profile's live Gateway + IndexEngine + TransferEngine,
// built lazily and cached by profile id.
//
// handle is the ConnectionPool lease backing idx/xfr for the connection's
// entire lifetime: index.Engine and transfer.Engine are bound to one
// *store.IndexStore at construction,
// so the lease is held, not acquired-and-released per call, and is
// returned to the pool only when the connection is evicted from the cache.
type connection struct {
	gw     gateway.Gateway
	idx    *index.Engine
	xfr    *transfer.Engine
	handle *store.IndexStore
}

// cancelHandle is one entry of an active-operation registry
// (active_uploads, active_downloads, or active_indexing — the latter keyed
// "{profile_id}-{bucket}"): a broadcast cancellation channel closed at most
// once, so duplicate cancel commands are tolerated even when they race.
type cancelHandle struct {
	cancel chan struct{}
	once   sync.Once
}

func newCancelHandle() *cancelHandle {
	return &cancelHandle{cancel: make(chan struct{})}
}

// fire closes the cancel channel exactly once.
func (h *cancelHandle) fire() {
	h.once.Do(func() { close(h.cancel) })
}

// Config wires the facade's dependencies.
type Config struct {
	DataDir string
	Pool    pool.Config
	Cache   cache.Config
	Transfer transfer.Config
}

// Facade is the CommandFacade.
type Facade struct {
	cfg      Config
	profiles *profile.Store
	pool     *pool.Pool
	conns    *cache.BoundedCache[string, *connection]
	sink     *metrics.Sink
	emitter  events.Emitter
	validator *validate.Validator

	mu              sync.Mutex
	activeUploads   map[string]*cancelHandle
	activeDownloads map[string]*cancelHandle
	activeIndexing  map[string]*cancelHandle
	leasedHandles   map[string]*store.IndexStore // profile id -> pool lease backing its connection
}

// New constructs a Facade. profiles is the already-open profile store;
// sink may be nil to disable metrics recording; emitter may be nil to
// disable event delivery (useful for headless command-line use).
func New(cfg Config, profiles *profile.Store, sink *metrics.Sink, emitter events.Emitter) *Facade {
	f := &Facade{
		cfg:       cfg,
		profiles:  profiles,
		sink:      sink,
		emitter:   emitter,
		validator: validate.New(),
		activeUploads:   make(map[string]*cancelHandle),
		activeDownloads: make(map[string]*cancelHandle),
		activeIndexing:  make(map[string]*cancelHandle),
		leasedHandles:   make(map[string]*store.IndexStore),
	}
	f.pool = pool.New(cfg.Pool, f.openIndexStore)
	f.conns = cache.New[string, *connection]("facade.connections", cfg.Cache, f.onConnectionEvicted)
	return f
}

// onConnectionEvicted returns the evicted connection's pool lease. The
// cache's eviction listener only carries the key, so the
// lease itself is tracked in leasedHandles, set alongside the cache insert.
func (f *Facade) onConnectionEvicted(profileID string, _ cache.EvictionCause) {
	f.mu.Lock()
	handle, ok := f.leasedHandles[profileID]
	delete(f.leasedHandles, profileID)
	f.mu.Unlock()
	if ok {
		f.pool.Release(profileID, handle)
	}
}

func (f *Facade) openIndexStore(profileID string) (*store.IndexStore, error) {
	path, err := profile.IndexFilePath(f.cfg.DataDir, profileID)
	if err != nil {
		return nil, err
	}
	return store.Open(profileID, store.Config{Path: path})
}

// connectionFor returns (building if absent) the per-profile connection,
// honoring the cache's at-most-one-build guarantee so concurrent commands
// for the same profile share one Gateway/IndexEngine/TransferEngine trio.
func (f *Facade) connectionFor(ctx context.Context, p profile.Profile) (*connection, error) {
	return f.conns.GetOrInsertWith(ctx, p.ID, func(ctx context.Context) (*connection, error) {
		gw, err := gateway.NewClient(ctx, gateway.Config{
			Endpoint: p.Endpoint, Region: p.Region, AccessKey: p.AccessKey,
			SecretKey: p.SecretKey, SessionToken: p.SessionToken, PathStyle: p.PathStyle,
		})
		if err != nil {
			return nil, err
		}

		handle, err := f.pool.Acquire(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.leasedHandles[p.ID] = handle
		f.mu.Unlock()

		idxEngine := index.New(gw, handle)
		xfrEngine := transfer.New(gw, idxEngine, f.cfg.Transfer)
		return &connection{gw: gw, idx: idxEngine, xfr: xfrEngine, handle: handle}, nil
	})
}

func (f *Facade) lookupProfile(id string) (profile.Profile, error) {
	p, ok, err := f.profiles.Get(id)
	if err != nil {
		return profile.Profile{}, err
	}
	if !ok {
		return profile.Profile{}, errs.New(errs.ProfileNotFound, "profile not found").WithPath(id)
	}
	return p, nil
}

func (f *Facade) recordMetric(m events.S3RequestMetric) {
	if f.sink != nil {
		if err := f.sink.RecordRequest(m); err != nil {
			_ = err // best-effort: metrics must never fail the user operation
		}
	}
	if f.emitter != nil {
		f.emitter.EmitMetric(m)
	}
}

// --- Profile commands ---------------------------------------------------

// ListProfiles returns every configured profile (credentials decrypted).
func (f *Facade) ListProfiles() ([]profile.Profile, error) {
	return f.profiles.List()
}

// SaveProfile validates and persists p, returning the stored record (with
// an assigned ID if p.ID was empty).
func (f *Facade) SaveProfile(p profile.Profile) (profile.Profile, error) {
	if p.Name == "" {
		return profile.Profile{}, errs.New(errs.ValidationError, "profile name is required")
	}
	if warning, err := validate.EndpointURL(p.Endpoint); err != nil {
		return profile.Profile{}, err
	} else if warning != "" {
		logger.L().Warn("profile endpoint warning", "profile", p.Name, "warning", warning)
	}
	return f.profiles.Save(p)
}

// DeleteProfile removes the profile and releases its cached connection,
// pooled handles, and index-store file handle.
func (f *Facade) DeleteProfile(id string) (bool, error) {
	f.conns.Remove(id)
	if err := f.pool.CloseProfile(id); err != nil {
		return false, err
	}
	return f.profiles.Delete(id)
}

// --- Bucket / object commands --------------------------------------------

// ListBuckets lists the buckets visible to profileID's credentials.
func (f *Facade) ListBuckets(ctx context.Context, profileID string) ([]gateway.BucketSummary, error) {
	ctx, span := telemetry.StartFacadeSpan(ctx, "list_buckets", telemetry.Profile(profileID))
	defer span.End()
	start := time.Now()

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}
	buckets, err := conn.gw.ListBuckets(ctx)
	f.recordMetric(events.NewS3RequestMetric(uuid.NewString(), "ListBuckets", events.CategoryList,
		profileID, p.Name, "", "", time.Since(start), 0, len(buckets), err == nil, categoryOf(err), messageOf(err)))
	return buckets, err
}

// ListObjects lists one page of (bucket, prefix) and folds the page into
// the profile's IndexStore via IndexEngine.UpdateFromListResponse.
func (f *Facade) ListObjects(ctx context.Context, profileID, bucket, prefix, continuationToken string) (*gateway.ListObjectsOutput, error) {
	if err := validate.BucketName(bucket); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartFacadeSpan(ctx, "list_objects", telemetry.Profile(profileID), telemetry.Bucket(bucket), telemetry.Prefix(prefix))
	defer span.End()
	start := time.Now()

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}

	page, err := conn.gw.ListObjectsV2(ctx, gateway.ListObjectsInput{
		Bucket: bucket, Prefix: prefix, Delimiter: "/", ContinuationToken: continuationToken, MaxKeys: 1000,
	})
	f.recordMetric(events.NewS3RequestMetric(uuid.NewString(), "ListObjectsV2", events.CategoryList,
		profileID, p.Name, bucket, prefix, time.Since(start), 0, len(pageObjects(page)), err == nil, categoryOf(err), messageOf(err)))
	if err != nil {
		return nil, err
	}

	if err := conn.idx.UpdateFromListResponse(ctx, bucket, prefix, page); err != nil {
		return page, err
	}
	return page, nil
}

func pageObjects(page *gateway.ListObjectsOutput) []gateway.ObjectSummary {
	if page == nil {
		return nil
	}
	return page.Objects
}

// SearchObjects delegates to the profile's IndexEngine.
func (f *Facade) SearchObjects(ctx context.Context, profileID, bucket, substr, prefix string, limit int) ([]*model.IndexedObject, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return conn.idx.SearchObjects(bucket, substr, prefix, limit)
}

// DeleteObject deletes one object from S3 and reconciles the index.
func (f *Facade) DeleteObject(ctx context.Context, profileID, bucket, key string) error {
	if err := validate.ObjectKey(key); err != nil {
		return err
	}
	ctx, span := telemetry.StartFacadeSpan(ctx, "delete_object", telemetry.Profile(profileID), telemetry.Bucket(bucket), telemetry.ObjectKey(key))
	defer span.End()
	start := time.Now()

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}

	err = conn.gw.DeleteObject(ctx, bucket, key)
	f.recordMetric(events.NewS3RequestMetric(uuid.NewString(), "DeleteObject", events.CategoryDelete,
		profileID, p.Name, bucket, key, time.Since(start), 0, 1, err == nil, categoryOf(err), messageOf(err)))
	if err != nil {
		return err
	}
	return conn.idx.RemoveObject(ctx, bucket, key)
}

// CopyObject copies src to dst within or across buckets, records the
// metrics event, and upserts the destination into the index. When the
// source row is indexed its size is carried over to the destination;
// otherwise the destination is recorded with size 0 until its prefix is
// next re-synced.
func (f *Facade) CopyObject(ctx context.Context, profileID, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := validate.ObjectKey(srcKey); err != nil {
		return err
	}
	if err := validate.ObjectKey(dstKey); err != nil {
		return err
	}
	ctx, span := telemetry.StartFacadeSpan(ctx, "copy_object", telemetry.Profile(profileID), telemetry.Bucket(dstBucket), telemetry.ObjectKey(dstKey))
	defer span.End()
	start := time.Now()

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}

	err = conn.gw.CopyObject(ctx, gateway.CopyObjectInput{
		SrcBucket: srcBucket, SrcKey: srcKey, DstBucket: dstBucket, DstKey: dstKey,
	})
	f.recordMetric(events.NewS3RequestMetric(uuid.NewString(), "CopyObject", events.CategoryPut,
		profileID, p.Name, dstBucket, dstKey, time.Since(start), 0, 1, err == nil, categoryOf(err), messageOf(err)))
	if err != nil {
		return err
	}

	size := int64(0)
	if srcRow, lookupErr := conn.idx.SearchObjects(srcBucket, srcKey, "", 1); lookupErr == nil {
		for _, row := range srcRow {
			if row.Key == srcKey {
				size = row.Size
			}
		}
	}
	return conn.idx.AddObject(ctx, &model.IndexedObject{Bucket: dstBucket, Key: dstKey, Size: size, IndexedAt: time.Now().UnixMilli()})
}

// --- Indexing commands ----------------------------------------------------

func indexingKey(profileID, bucket string) string { return profileID + "-" + bucket }

// StartIndexing launches the bucket's initial index run on its own
// goroutine, enforcing "at most one indexing per bucket per profile"
//. Returns immediately; progress and the terminal state
// arrive via the Emitter.
func (f *Facade) StartIndexing(ctx context.Context, profileID, bucket string, cfg index.IndexingConfig) error {
	if err := validate.BucketName(bucket); err != nil {
		return err
	}
	key := indexingKey(profileID, bucket)

	f.mu.Lock()
	if _, exists := f.activeIndexing[key]; exists {
		f.mu.Unlock()
		return errs.New(errs.ValidationError, "indexing already in progress for this bucket").WithPath(key)
	}
	handle := newCancelHandle()
	f.activeIndexing[key] = handle
	f.mu.Unlock()

	p, err := f.lookupProfile(profileID)
	if err != nil {
		f.removeIndexing(key)
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		f.removeIndexing(key)
		return err
	}

	go f.runIndexing(context.Background(), conn, profileID, bucket, cfg, handle)
	return nil
}

func (f *Facade) removeIndexing(key string) {
	f.mu.Lock()
	delete(f.activeIndexing, key)
	f.mu.Unlock()
}

func (f *Facade) runIndexing(ctx context.Context, conn *connection, profileID, bucket string, cfg index.IndexingConfig, handle *cancelHandle) {
	key := indexingKey(profileID, bucket)
	defer f.removeIndexing(key)

	f.emit(func(e events.Emitter) {
		e.EmitIndexProgress(events.IndexProgress{ProfileID: profileID, Bucket: bucket, Status: events.IndexStarting})
	})

	progress := func(totalIndexed int64, requestsMade, maxRequests int) {
		f.emit(func(e events.Emitter) {
			e.EmitIndexProgress(events.IndexProgress{
				ProfileID: profileID, Bucket: bucket, ObjectsIndexed: totalIndexed,
				RequestsMade: requestsMade, MaxRequests: maxRequests, Status: events.IndexIndexing,
			})
		})
	}

	result, err := conn.idx.InitialIndexBucket(ctx, bucket, cfg, progress, handle.cancel)
	if err != nil {
		f.emit(func(e events.Emitter) {
			e.EmitIndexProgress(events.IndexProgress{ProfileID: profileID, Bucket: bucket, Status: events.IndexFailed, Error: err.Error()})
		})
		return
	}

	status := events.IndexCompleted
	switch {
	case result.Error == "Cancelled by user":
		status = events.IndexCancelled
	case !result.IsComplete:
		status = events.IndexPartial
	}
	f.emit(func(e events.Emitter) {
		e.EmitIndexProgress(events.IndexProgress{
			ProfileID: profileID, Bucket: bucket, ObjectsIndexed: result.TotalIndexed,
			RequestsMade: result.RequestsMade, IsComplete: result.IsComplete, Status: status, Error: result.Error,
		})
	})
}

// CancelIndexing fires the cancellation signal for an in-progress indexing
// run. Emits the terminal event immediately for responsiveness, tolerating duplicate calls.
func (f *Facade) CancelIndexing(profileID, bucket string) {
	key := indexingKey(profileID, bucket)
	f.mu.Lock()
	handle, ok := f.activeIndexing[key]
	f.mu.Unlock()
	if !ok {
		return
	}
	f.emit(func(e events.Emitter) {
		e.EmitIndexProgress(events.IndexProgress{ProfileID: profileID, Bucket: bucket, Status: events.IndexCancelled})
	})
	handle.fire()
}

// --- Transfer commands ------------------------------------------------

// StartUpload launches an upload on its own goroutine, returning the
// transfer id immediately.
func (f *Facade) StartUpload(ctx context.Context, profileID string, in transfer.UploadInput) (string, error) {
	if err := validate.BucketName(in.Bucket); err != nil {
		return "", err
	}
	if err := validate.ObjectKey(in.Key); err != nil {
		return "", err
	}

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return "", err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return "", err
	}

	transferID := uuid.NewString()
	handle := newCancelHandle()
	f.mu.Lock()
	f.activeUploads[transferID] = handle
	f.mu.Unlock()

	go f.runUpload(context.Background(), conn, profileID, p.Name, transferID, in, handle)
	return transferID, nil
}

func (f *Facade) runUpload(ctx context.Context, conn *connection, profileID, profileName, transferID string, in transfer.UploadInput, handle *cancelHandle) {
	defer func() {
		f.mu.Lock()
		delete(f.activeUploads, transferID)
		f.mu.Unlock()
	}()

	start := time.Now()
	progress := func(p events.UploadProgress) {
		p.ProfileID = profileID
		f.emit(func(e events.Emitter) { e.EmitUploadProgress(p) })
	}

	uploaded, err := conn.xfr.UploadFile(ctx, transferID, in, progress, handle.cancel)
	f.recordMetric(events.NewS3RequestMetric(uuid.NewString(), "PutObject", events.CategoryPut,
		profileID, profileName, in.Bucket, in.Key, time.Since(start), uploaded, 1, err == nil, categoryOf(err), messageOf(err)))
}

// CancelUpload fires the cancellation signal for an in-progress upload.
func (f *Facade) CancelUpload(transferID string) {
	f.mu.Lock()
	handle, ok := f.activeUploads[transferID]
	f.mu.Unlock()
	if !ok {
		return
	}
	handle.fire()
}

// StartDownload launches a download on its own goroutine.
func (f *Facade) StartDownload(ctx context.Context, profileID, bucket, key, destPath string) (string, error) {
	if err := validate.ObjectKey(key); err != nil {
		return "", err
	}

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return "", err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return "", err
	}

	transferID := uuid.NewString()
	handle := newCancelHandle()
	f.mu.Lock()
	f.activeDownloads[transferID] = handle
	f.mu.Unlock()

	go f.runDownload(context.Background(), conn, profileID, p.Name, transferID, bucket, key, destPath, handle)
	return transferID, nil
}

func (f *Facade) runDownload(ctx context.Context, conn *connection, profileID, profileName, transferID, bucket, key, destPath string, handle *cancelHandle) {
	defer func() {
		f.mu.Lock()
		delete(f.activeDownloads, transferID)
		f.mu.Unlock()
	}()

	start := time.Now()
	progress := func(p events.DownloadProgress) {
		p.ProfileID = profileID
		f.emit(func(e events.Emitter) { e.EmitDownloadProgress(p) })
	}

	downloaded, err := conn.xfr.DownloadFile(ctx, transferID, bucket, key, destPath, progress, handle.cancel)
	f.recordMetric(events.NewS3RequestMetric(uuid.NewString(), "GetObject", events.CategoryGet,
		profileID, profileName, bucket, key, time.Since(start), downloaded, 1, err == nil, categoryOf(err), messageOf(err)))
}

// CancelDownload fires the cancellation signal for an in-progress download.
func (f *Facade) CancelDownload(transferID string) {
	f.mu.Lock()
	handle, ok := f.activeDownloads[transferID]
	f.mu.Unlock()
	if !ok {
		return
	}
	handle.fire()
}

// AttachEmitter adds e as an additional event recipient alongside whatever
// emitter the facade was constructed with. Call during startup, before
// dispatching commands: the emitter chain is read without a lock on every
// emit.
func (f *Facade) AttachEmitter(e events.Emitter) {
	switch existing := f.emitter.(type) {
	case nil:
		f.emitter = e
	case events.MultiEmitter:
		f.emitter = append(existing, e)
	default:
		f.emitter = events.MultiEmitter{existing, e}
	}
}

// Shutdown releases every pooled connection handle across every profile.
func (f *Facade) Shutdown() error {
	return f.pool.CloseAll()
}

func (f *Facade) emit(fn func(events.Emitter)) {
	if f.emitter != nil {
		fn(f.emitter)
	}
}

func categoryOf(err error) string {
	if e, ok := err.(*errs.Error); ok {
		return e.Category.String()
	}
	return ""
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
