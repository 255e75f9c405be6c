package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccessDevops/S3Explorer/pkg/gateway"
	"github.com/AccessDevops/S3Explorer/pkg/model"
	"github.com/AccessDevops/S3Explorer/pkg/store"
)

// fakeGateway serves canned ListObjectsV2 pages. The embedded interface
// panics on any other call, which is what we want: the index engine must
// only ever list.
type fakeGateway struct {
	gateway.Gateway
	pages     []*gateway.ListObjectsOutput
	delimited *gateway.ListObjectsOutput
	calls     int
	onList    func(call int)
}

func (f *fakeGateway) ListObjectsV2(ctx context.Context, in gateway.ListObjectsInput) (*gateway.ListObjectsOutput, error) {
	f.calls++
	if f.onList != nil {
		f.onList(f.calls)
	}
	if in.Delimiter != "" {
		if f.delimited != nil {
			return f.delimited, nil
		}
		return &gateway.ListObjectsOutput{}, nil
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

func newTestEngine(t *testing.T, gw gateway.Gateway) (*Engine, *store.IndexStore) {
	t.Helper()
	st, err := store.Open("test-profile", store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(gw, st), st
}

func obj(key string, size int64) gateway.ObjectSummary {
	return gateway.ObjectSummary{Key: key, Size: size, ETag: "etag-" + key}
}

func TestInitialIndexBucket_CompleteBucket(t *testing.T) {
	gw := &fakeGateway{pages: []*gateway.ListObjectsOutput{
		{
			Objects:               []gateway.ObjectSummary{obj("a/one.txt", 10), obj("a/two.txt", 20)},
			IsTruncated:           true,
			NextContinuationToken: "t1",
		},
		{
			Objects: []gateway.ObjectSummary{obj("b/three.txt", 30)},
		},
	}}
	e, st := newTestEngine(t, gw)

	var progressCalls int
	result, err := e.InitialIndexBucket(context.Background(), "bkt", IndexingConfig{}, func(total int64, reqs, max int) {
		progressCalls++
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.TotalIndexed)
	assert.True(t, result.IsComplete)
	assert.Equal(t, 2, result.RequestsMade)
	assert.Equal(t, int64(60), result.TotalSize)
	assert.Equal(t, "b/three.txt", result.LastKey)
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, progressCalls)

	info, err := st.GetBucketInfo("bkt")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.True(t, info.InitialIndexCompleted)
	assert.Equal(t, 2, info.InitialIndexRequests)

	// one complete PrefixStatus per non-empty parent prefix, plus the root
	for _, prefix := range []string{"a/", "b/", ""} {
		ps, err := st.GetPrefixStatus("bkt", prefix)
		require.NoError(t, err)
		require.NotNil(t, ps, "prefix %q", prefix)
		assert.True(t, ps.IsComplete, "prefix %q", prefix)
	}
	complete, err := st.IsPrefixComplete("bkt", "a/")
	require.NoError(t, err)
	assert.True(t, complete)
}

// Cancellation after the first batch preserves partial state.
func TestInitialIndexBucket_CancelPreservesPartialState(t *testing.T) {
	cancel := make(chan struct{})
	gw := &fakeGateway{
		pages: []*gateway.ListObjectsOutput{
			{
				Objects:               manyObjects("data/", 1000),
				IsTruncated:           true,
				NextContinuationToken: "t1",
			},
			{Objects: []gateway.ObjectSummary{obj("z/tail.txt", 1)}},
		},
		delimited: &gateway.ListObjectsOutput{
			Objects: []gateway.ObjectSummary{{Key: "data/", IsPrefix: true}, {Key: "media/", IsPrefix: true}},
		},
	}
	gw.onList = func(call int) {
		if call == 1 {
			close(cancel)
		}
	}
	e, st := newTestEngine(t, gw)

	result, err := e.InitialIndexBucket(context.Background(), "bkt", IndexingConfig{}, nil, cancel)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), result.TotalIndexed)
	assert.False(t, result.IsComplete)
	assert.Equal(t, "Cancelled by user", result.Error)

	info, err := st.GetBucketInfo("bkt")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.False(t, info.InitialIndexCompleted)

	// top-level folder discovery ran: both common prefixes materialized
	// incomplete
	for _, prefix := range []string{"data/", "media/"} {
		ps, err := st.GetPrefixStatus("bkt", prefix)
		require.NoError(t, err)
		require.NotNil(t, ps, "prefix %q", prefix)
		assert.False(t, ps.IsComplete)
	}
}

func TestInitialIndexBucket_MaxRequestsBoundsTheRun(t *testing.T) {
	page := &gateway.ListObjectsOutput{
		Objects:               []gateway.ObjectSummary{obj("a/x", 1)},
		IsTruncated:           true,
		NextContinuationToken: "more",
	}
	gw := &fakeGateway{pages: []*gateway.ListObjectsOutput{page}}
	e, _ := newTestEngine(t, gw)

	result, err := e.InitialIndexBucket(context.Background(), "bkt", IndexingConfig{MaxInitialRequests: 3}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RequestsMade)
	assert.False(t, result.IsComplete)
	assert.Equal(t, "more", result.ContinuationToken)
	assert.Empty(t, result.Error)
}

// The watermark recorded on the root row is the greatest key listed.
func TestInitialIndexBucket_WatermarkIsGreatestKey(t *testing.T) {
	gw := &fakeGateway{pages: []*gateway.ListObjectsOutput{
		{Objects: []gateway.ObjectSummary{obj("a/1", 1), obj("a/2", 1), obj("b/9", 1)}},
	}}
	e, st := newTestEngine(t, gw)

	_, err := e.InitialIndexBucket(context.Background(), "bkt", IndexingConfig{}, nil, nil)
	require.NoError(t, err)

	root, err := st.GetPrefixStatus("bkt", "")
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, "b/9", root.LastIndexedKey)
}

func TestUpdateFromListResponse(t *testing.T) {
	gw := &fakeGateway{}
	e, st := newTestEngine(t, gw)

	page := &gateway.ListObjectsOutput{
		Objects: []gateway.ObjectSummary{
			obj("photos/cat.jpg", 100),
			obj("photos/dog.jpg", 200),
			{Key: "photos/raw/", IsPrefix: true},
		},
		IsTruncated: false,
	}
	require.NoError(t, e.UpdateFromListResponse(context.Background(), "bkt", "photos/", page))

	ps, err := st.GetPrefixStatus("bkt", "photos/")
	require.NoError(t, err)
	require.NotNil(t, ps)
	assert.True(t, ps.IsComplete)
	assert.Equal(t, int64(2), ps.ObjectsCount)
	assert.Equal(t, int64(300), ps.TotalSize)
	assert.Equal(t, "photos/dog.jpg", ps.LastIndexedKey)

	// the discovered common prefix is materialized incomplete
	raw, err := st.GetPrefixStatus("bkt", "photos/raw/")
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.False(t, raw.IsComplete)
}

func TestUpdateFromListResponse_TruncatedPageLeavesPrefixIncomplete(t *testing.T) {
	gw := &fakeGateway{}
	e, st := newTestEngine(t, gw)

	page := &gateway.ListObjectsOutput{
		Objects:               []gateway.ObjectSummary{obj("p/a", 1)},
		IsTruncated:           true,
		NextContinuationToken: "next",
	}
	require.NoError(t, e.UpdateFromListResponse(context.Background(), "bkt", "p/", page))

	ps, err := st.GetPrefixStatus("bkt", "p/")
	require.NoError(t, err)
	require.NotNil(t, ps)
	assert.False(t, ps.IsComplete)
	assert.Equal(t, "next", ps.ContinuationToken)
}

// Adding an object invalidates the whole ancestor chain.
func TestAddObject_MarksAncestorsIncomplete(t *testing.T) {
	gw := &fakeGateway{}
	e, st := newTestEngine(t, gw)

	require.NoError(t, st.UpsertPrefixStatus(&model.PrefixStatus{Bucket: "bkt", Prefix: "a/b/c/", IsComplete: true}))

	require.NoError(t, e.AddObject(context.Background(), &model.IndexedObject{Bucket: "bkt", Key: "a/b/c/file.txt", Size: 7}))

	for _, prefix := range []string{"a/b/c/", "a/b/", "a/", ""} {
		ps, err := st.GetPrefixStatus("bkt", prefix)
		require.NoError(t, err)
		require.NotNil(t, ps, "prefix %q", prefix)
		assert.False(t, ps.IsComplete, "prefix %q", prefix)
	}

	count, size, err := e.GetPrefixStats("bkt", "a/b/c/")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(7), size)
}

func TestRemoveFolder_DeletesObjectsAndStatus(t *testing.T) {
	gw := &fakeGateway{}
	e, st := newTestEngine(t, gw)

	for _, key := range []string{"docs/a.txt", "docs/b.txt", "other/c.txt"} {
		require.NoError(t, e.AddObject(context.Background(), &model.IndexedObject{Bucket: "bkt", Key: key, Size: 1}))
	}

	require.NoError(t, e.RemoveFolder(context.Background(), "bkt", "docs/"))

	results, err := e.SearchObjects("bkt", "docs/", "", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	ps, err := st.GetPrefixStatus("bkt", "docs/")
	require.NoError(t, err)
	assert.Nil(t, ps)

	// the sibling folder is untouched
	other, err := st.GetObject("bkt", "other/c.txt")
	require.NoError(t, err)
	assert.NotNil(t, other)
}

func TestSyncPrefixObjects_CleansUpOrphans(t *testing.T) {
	gw := &fakeGateway{}
	e, st := newTestEngine(t, gw)

	require.NoError(t, e.AddObject(context.Background(), &model.IndexedObject{Bucket: "bkt", Key: "p/q/only.txt", Size: 1}))

	deleted, err := e.SyncPrefixObjects(context.Background(), "bkt", "p/q/", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// the now-empty prefix row was removed by orphan cleanup
	ps, err := st.GetPrefixStatus("bkt", "p/q/")
	require.NoError(t, err)
	assert.Nil(t, ps)
}

func manyObjects(prefix string, n int) []gateway.ObjectSummary {
	out := make([]gateway.ObjectSummary, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, gateway.ObjectSummary{Key: prefix + keyName(i), Size: 1})
	}
	return out
}

func keyName(i int) string {
	// zero-padded so the listing stays lexicographically ordered
	const digits = "0123456789"
	return string([]byte{
		digits[i/1000%10], digits[i/100%10], digits[i/10%10], digits[i%10],
	})
}
