package facade

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccessDevops/S3Explorer/internal/cryptoutil"
	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/events"
	"github.com/AccessDevops/S3Explorer/pkg/index"
	"github.com/AccessDevops/S3Explorer/pkg/profile"
	"github.com/AccessDevops/S3Explorer/pkg/transfer"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	dir := t.TempDir()
	key := bytes.Repeat([]byte{0x24}, cryptoutil.KeySize)
	profiles, err := profile.Open(filepath.Join(dir, "profiles.json"), key)
	require.NoError(t, err)
	t.Cleanup(func() { _ = profiles.Close() })

	f := New(Config{DataDir: dir}, profiles, nil, nil)
	t.Cleanup(func() { _ = f.Shutdown() })
	return f
}

func TestSaveProfile_RequiresName(t *testing.T) {
	f := newTestFacade(t)

	_, err := f.SaveProfile(profile.Profile{AccessKey: "AK", SecretKey: "SK"})
	require.Error(t, err)
	code, ok := errs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.ValidationError, code)
}

func TestSaveProfile_RejectsBadEndpointScheme(t *testing.T) {
	f := newTestFacade(t)

	_, err := f.SaveProfile(profile.Profile{Name: "p", Endpoint: "ftp://host", AccessKey: "AK", SecretKey: "SK"})
	assert.Error(t, err)
}

func TestSaveProfile_AssignsIDAndRoundTrips(t *testing.T) {
	f := newTestFacade(t)

	saved, err := f.SaveProfile(profile.Profile{Name: "minio", Endpoint: "http://localhost:9000", AccessKey: "AK", SecretKey: "SK", PathStyle: true})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	listed, err := f.ListProfiles()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "AK", listed[0].AccessKey)
	assert.Equal(t, "SK", listed[0].SecretKey)
}

// Starting indexing for a (profile, bucket) with one already active
// returns an error and does not alter the registry.
func TestStartIndexing_RejectsSecondRunForSameBucket(t *testing.T) {
	f := newTestFacade(t)

	key := indexingKey("prof-1", "my-bucket")
	f.mu.Lock()
	f.activeIndexing[key] = newCancelHandle()
	f.mu.Unlock()

	err := f.StartIndexing(context.Background(), "prof-1", "my-bucket", index.IndexingConfig{})
	require.Error(t, err)
	code, ok := errs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.ValidationError, code)

	f.mu.Lock()
	_, stillThere := f.activeIndexing[key]
	f.mu.Unlock()
	assert.True(t, stillThere, "the active run must not be disturbed")
}

func TestStartIndexing_ValidatesBucketName(t *testing.T) {
	f := newTestFacade(t)
	err := f.StartIndexing(context.Background(), "prof-1", "NO_CAPS", index.IndexingConfig{})
	assert.Error(t, err)
}

func TestStartUpload_UnknownProfileFails(t *testing.T) {
	f := newTestFacade(t)

	_, err := f.StartUpload(context.Background(), "ghost", transfer.UploadInput{Bucket: "valid-bucket", Key: "k", FilePath: "/nope"})
	require.Error(t, err)
	code, ok := errs.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.ProfileNotFound, code)

	f.mu.Lock()
	assert.Empty(t, f.activeUploads)
	f.mu.Unlock()
}

func TestCancelCommands_UnknownIDsAreNoOps(t *testing.T) {
	f := newTestFacade(t)

	// none of these may panic or alter state
	f.CancelUpload("missing")
	f.CancelDownload("missing")
	f.CancelIndexing("prof-1", "missing-bucket")
}

func TestCancelIndexing_ToleratesDuplicateCancel(t *testing.T) {
	f := newTestFacade(t)

	key := indexingKey("prof-1", "my-bucket")
	handle := newCancelHandle()
	f.mu.Lock()
	f.activeIndexing[key] = handle
	f.mu.Unlock()

	f.CancelIndexing("prof-1", "my-bucket")
	f.CancelIndexing("prof-1", "my-bucket") // duplicate must not panic

	select {
	case <-handle.cancel:
	default:
		t.Fatal("cancel signal not fired")
	}
}

func TestCancelHandle_FireIdempotent(t *testing.T) {
	handle := newCancelHandle()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle.fire()
		}()
	}
	wg.Wait()

	select {
	case <-handle.cancel:
	default:
		t.Fatal("cancel channel not closed")
	}
}

func TestIndexingKey(t *testing.T) {
	assert.Equal(t, "p1-bkt", indexingKey("p1", "bkt"))
}

func TestAttachEmitter_FansOut(t *testing.T) {
	f := newTestFacade(t)

	var a, b recordingEmitter
	f.AttachEmitter(&a)
	f.AttachEmitter(&b)

	f.emit(func(e events.Emitter) {
		e.EmitIndexProgress(events.IndexProgress{Bucket: "bkt", Status: events.IndexStarting})
	})
	assert.Equal(t, 1, a.indexEvents)
	assert.Equal(t, 1, b.indexEvents)
}

type recordingEmitter struct {
	indexEvents int
}

func (r *recordingEmitter) EmitUploadProgress(events.UploadProgress)     {}
func (r *recordingEmitter) EmitDownloadProgress(events.DownloadProgress) {}
func (r *recordingEmitter) EmitIndexProgress(events.IndexProgress)       { r.indexEvents++ }
func (r *recordingEmitter) EmitMetric(events.S3RequestMetric)            {}
