package transfer

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccessDevops/S3Explorer/pkg/events"
	"github.com/AccessDevops/S3Explorer/pkg/gateway"
	"github.com/AccessDevops/S3Explorer/pkg/model"
)

// fakeGateway records the upload/download calls the engine makes. The
// embedded interface panics on anything the engine shouldn't touch.
type fakeGateway struct {
	gateway.Gateway

	mu        sync.Mutex
	putCalls  int
	putBody   []byte
	parts     []gateway.UploadPartInput
	completed *gateway.CompleteMultipartInput
	aborted   bool

	headSize   int64
	headErr    error
	streamData []byte
	onRead     func(readCount int)
}

func (f *fakeGateway) PutObject(ctx context.Context, in gateway.PutObjectInput) (*gateway.ObjectMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	f.putBody = in.Body
	return &gateway.ObjectMeta{Key: in.Key, Size: int64(len(in.Body))}, nil
}

func (f *fakeGateway) CreateMultipartUpload(ctx context.Context, bucket, key string) (string, error) {
	return "upload-1", nil
}

func (f *fakeGateway) UploadPart(ctx context.Context, in gateway.UploadPartInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body := make([]byte, len(in.Body))
	copy(body, in.Body)
	in.Body = body
	f.parts = append(f.parts, in)
	return "etag-" + string(rune('0'+in.PartNumber)), nil
}

func (f *fakeGateway) CompleteMultipartUpload(ctx context.Context, in gateway.CompleteMultipartInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = &in
	return nil
}

func (f *fakeGateway) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = true
	return nil
}

func (f *fakeGateway) HeadObject(ctx context.Context, bucket, key string) (*gateway.ObjectMeta, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &gateway.ObjectMeta{Key: key, Size: f.headSize}, nil
}

type fakeStream struct {
	r         *bytes.Reader
	readCount int
	onRead    func(readCount int)
}

func (s *fakeStream) Read(p []byte) (int, error) {
	s.readCount++
	if s.onRead != nil {
		s.onRead(s.readCount)
	}
	return s.r.Read(p)
}

func (s *fakeStream) Close() error { return nil }

func (f *fakeGateway) GetObjectStream(ctx context.Context, bucket, key string, rangeStart, rangeEnd int64) (gateway.Stream, *gateway.ObjectMeta, error) {
	return &fakeStream{r: bytes.NewReader(f.streamData), onRead: f.onRead},
		&gateway.ObjectMeta{Key: key, Size: int64(len(f.streamData))}, nil
}

// fakeHook records post-upload index reconciliation calls.
type fakeHook struct {
	mu    sync.Mutex
	added []*model.IndexedObject
}

func (h *fakeHook) AddObject(ctx context.Context, o *model.IndexedObject) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added = append(h.added, o)
	return nil
}

func writeTempFile(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// smallConfig shrinks the threshold/part/chunk sizes so the multipart and
// chunked-download paths are exercised without multi-megabyte fixtures.
func smallConfig() Config {
	return Config{Threshold: 10, PartSize: 10, ChunkSize: 4}
}

func collectUploads(progress *[]events.UploadProgress, mu *sync.Mutex) UploadProgressFunc {
	return func(p events.UploadProgress) {
		mu.Lock()
		*progress = append(*progress, p)
		mu.Unlock()
	}
}

func TestUploadFile_SmallFileUsesSinglePut(t *testing.T) {
	gw := &fakeGateway{}
	hook := &fakeHook{}
	e := New(gw, hook, smallConfig())
	path := writeTempFile(t, 5)

	var mu sync.Mutex
	var progress []events.UploadProgress
	uploaded, err := e.UploadFile(context.Background(), "t1", UploadInput{Bucket: "b", Key: "small.bin", FilePath: path},
		collectUploads(&progress, &mu), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), uploaded)

	assert.Equal(t, 1, gw.putCalls)
	assert.Len(t, gw.putBody, 5)
	assert.Empty(t, gw.parts, "no multipart for a file under the threshold")

	final := progress[len(progress)-1]
	assert.Equal(t, events.StatusCompleted, final.Status)
	assert.Equal(t, int64(5), final.UploadedBytes)
	assert.Equal(t, float64(100), final.Percentage)

	require.Len(t, hook.added, 1)
	assert.Equal(t, "small.bin", hook.added[0].Key)
	assert.Equal(t, int64(5), hook.added[0].Size)
}

// A 25-byte file with 10-byte parts uploads as [10,10,5], part numbers
// 1..3 with no gaps, progress strictly increasing to the full size.
func TestUploadFile_MultipartPartSizesAndProgress(t *testing.T) {
	gw := &fakeGateway{}
	hook := &fakeHook{}
	e := New(gw, hook, smallConfig())
	path := writeTempFile(t, 25)

	var mu sync.Mutex
	var progress []events.UploadProgress
	uploaded, err := e.UploadFile(context.Background(), "t2", UploadInput{Bucket: "b", Key: "big.bin", FilePath: path},
		collectUploads(&progress, &mu), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(25), uploaded)

	require.Len(t, gw.parts, 3)
	var total int64
	for i, p := range gw.parts {
		assert.Equal(t, int32(i+1), p.PartNumber)
		total += int64(len(p.Body))
	}
	assert.Equal(t, int64(25), total)
	assert.Len(t, gw.parts[0].Body, 10)
	assert.Len(t, gw.parts[1].Body, 10)
	assert.Len(t, gw.parts[2].Body, 5)

	require.NotNil(t, gw.completed)
	require.Len(t, gw.completed.Parts, 3)
	for i, p := range gw.completed.Parts {
		assert.Equal(t, int32(i+1), p.PartNumber)
	}

	var last int64 = -1
	for _, p := range progress {
		require.GreaterOrEqual(t, p.UploadedBytes, last, "uploaded_bytes must be non-decreasing")
		last = p.UploadedBytes
	}
	final := progress[len(progress)-1]
	assert.Equal(t, events.StatusCompleted, final.Status)
	assert.Equal(t, int64(25), final.UploadedBytes)
	assert.Equal(t, float64(100), final.Percentage)

	require.Len(t, hook.added, 1)
}

func TestUploadFile_CancelAbortsMultipart(t *testing.T) {
	gw := &fakeGateway{}
	e := New(gw, nil, smallConfig())
	path := writeTempFile(t, 25)

	cancel := make(chan struct{})
	close(cancel)

	var mu sync.Mutex
	var progress []events.UploadProgress
	uploaded, err := e.UploadFile(context.Background(), "t3", UploadInput{Bucket: "b", Key: "big.bin", FilePath: path},
		collectUploads(&progress, &mu), cancel)
	require.NoError(t, err, "cancellation is not an error")
	assert.Zero(t, uploaded, "cancel fired before the first part")

	assert.True(t, gw.aborted)
	assert.Nil(t, gw.completed)

	final := progress[len(progress)-1]
	assert.Equal(t, events.StatusCancelled, final.Status)
	for _, p := range progress {
		assert.NotEqual(t, events.StatusCompleted, p.Status)
	}
}

func TestDownloadFile_WritesDestinationAndCompletes(t *testing.T) {
	data := []byte("0123456789abcdef-payload")
	gw := &fakeGateway{streamData: data, headSize: int64(len(data))}
	e := New(gw, nil, smallConfig())
	dest := filepath.Join(t.TempDir(), "out.bin")

	var mu sync.Mutex
	var progress []events.DownloadProgress
	downloaded, err := e.DownloadFile(context.Background(), "d1", "b", "k", dest, func(p events.DownloadProgress) {
		mu.Lock()
		progress = append(progress, p)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), downloaded)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, written)

	final := progress[len(progress)-1]
	assert.Equal(t, events.StatusCompleted, final.Status)
	assert.Equal(t, int64(len(data)), final.DownloadedBytes)
	assert.Equal(t, float64(100), final.Percentage)
}

func TestDownloadFile_SizeFallsBackToStreamWhenHeadFails(t *testing.T) {
	data := []byte("abcdefgh")
	gw := &fakeGateway{streamData: data, headErr: io.ErrUnexpectedEOF}
	e := New(gw, nil, smallConfig())
	dest := filepath.Join(t.TempDir(), "out.bin")

	_, err := e.DownloadFile(context.Background(), "d2", "b", "k", dest, nil, nil)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

// A cancelled download removes the partial destination file and never
// emits Completed.
func TestDownloadFile_CancelRemovesPartialFile(t *testing.T) {
	data := make([]byte, 64)
	cancel := make(chan struct{})
	gw := &fakeGateway{streamData: data}
	gw.onRead = func(readCount int) {
		if readCount == 2 {
			close(cancel)
		}
	}
	e := New(gw, nil, smallConfig())
	dest := filepath.Join(t.TempDir(), "partial.bin")

	var mu sync.Mutex
	var progress []events.DownloadProgress
	_, err := e.DownloadFile(context.Background(), "d3", "b", "k", dest, func(p events.DownloadProgress) {
		mu.Lock()
		progress = append(progress, p)
		mu.Unlock()
	}, cancel)
	require.NoError(t, err, "cancellation is not an error")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "destination must be removed on cancel")

	require.NotEmpty(t, progress)
	final := progress[len(progress)-1]
	assert.Equal(t, events.StatusCancelled, final.Status)
	for _, p := range progress {
		assert.NotEqual(t, events.StatusCompleted, p.Status)
	}
}
