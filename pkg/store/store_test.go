package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccessDevops/S3Explorer/pkg/model"
)

func newTestStore(t *testing.T) *IndexStore {
	t.Helper()
	s, err := Open("test-profile", Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertObject_DerivesKeyParts(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "a/b/c/file.txt", Size: 42})
	require.NoError(t, err)

	o, err := s.GetObject("b", "a/b/c/file.txt")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "a/b/c/", o.ParentPrefix)
	assert.Equal(t, "file.txt", o.Basename)
	assert.Equal(t, "txt", o.Extension)
	assert.Equal(t, 3, o.Depth)
	assert.False(t, o.IsFolder)
	// parent_prefix ∥ basename == key
	assert.Equal(t, "a/b/c/file.txt", o.ParentPrefix+o.Basename)
}

func TestUpsertObject_UpsertsOnConflict(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "k", Size: 1})
	require.NoError(t, err)
	_, err = s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "k", Size: 2})
	require.NoError(t, err)

	var count int64
	require.NoError(t, s.db.Model(&model.IndexedObject{}).Where("bucket = ? AND key = ?", "b", "k").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	o, err := s.GetObject("b", "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), o.Size)
}

// Add an object at "a/b/c/file.txt"; expect ancestor rows for
// "a/b/c/", "a/b/", "a/", "" all incomplete, and correct prefix stats.
func TestUpsertPrefixStatus_MaterializesAncestors(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "a/b/c/file.txt", Size: 100})
	require.NoError(t, err)

	require.NoError(t, s.UpsertPrefixStatus(&model.PrefixStatus{Bucket: "b", Prefix: "a/b/c/", IsComplete: false}))

	for _, prefix := range []string{"a/b/c/", "a/b/", "a/", ""} {
		var ps model.PrefixStatus
		err := s.db.Where("bucket = ? AND prefix = ?", "b", prefix).First(&ps).Error
		require.NoError(t, err, "expected PrefixStatus row for %q", prefix)
		assert.False(t, ps.IsComplete)
	}

	count, size, err := s.CalculatePrefixStats("b", "a/b/")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(100), size)
}

func TestMarkPrefixAndAncestorsIncomplete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertPrefixStatus(&model.PrefixStatus{Bucket: "b", Prefix: "x/y/", IsComplete: true}))
	require.NoError(t, s.db.Model(&model.PrefixStatus{}).
		Where("bucket = ? AND prefix IN ?", "b", []string{"x/", ""}).Update("is_complete", true).Error)

	require.NoError(t, s.MarkPrefixAndAncestorsIncomplete("b", "x/y/"))

	for _, prefix := range []string{"x/y/", "x/", ""} {
		var ps model.PrefixStatus
		require.NoError(t, s.db.Where("bucket = ? AND prefix = ?", "b", prefix).First(&ps).Error)
		assert.False(t, ps.IsComplete, "prefix %q should be incomplete", prefix)
	}
}

// Root status last_indexed_key = "data/y"; archive/ should read complete
// via the watermark shortcut, data/ should not (watermark is exactly at, not past).
func TestIsPrefixComplete_WatermarkShortcut(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "archive/x", Size: 1})
	require.NoError(t, err)
	_, err = s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "data/y", Size: 1})
	require.NoError(t, err)

	require.NoError(t, s.UpsertPrefixStatus(&model.PrefixStatus{Bucket: "b", Prefix: "", LastIndexedKey: "data/y"}))

	complete, err := s.IsPrefixComplete("b", "archive/")
	require.NoError(t, err)
	assert.True(t, complete)

	complete, err = s.IsPrefixComplete("b", "data/")
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestIsPrefixComplete_BucketCompletedShortcut(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertBucketInfo(&model.BucketInfo{Bucket: "b", InitialIndexCompleted: true}))

	complete, err := s.IsPrefixComplete("b", "anything/")
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestSyncPrefixObjects_RemovesMissingKeys(t *testing.T) {
	s := newTestStore(t)

	for _, k := range []string{"p/a", "p/b", "p/c"} {
		_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: k, Size: 1})
		require.NoError(t, err)
	}

	deleted, err := s.SyncPrefixObjects("b", "p/", []string{"p/a", "p/c"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	o, err := s.GetObject("b", "p/b")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestSyncPrefixObjects_EmptyCurrentKeysDeletesAll(t *testing.T) {
	s := newTestStore(t)

	for _, k := range []string{"p/a", "p/b"} {
		_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: k, Size: 1})
		require.NoError(t, err)
	}

	deleted, err := s.SyncPrefixObjects("b", "p/", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

// An upsert followed by a delete of the same key returns the
// store to its pre-add stats.
func TestAddThenRemoveObject_RestoresStats(t *testing.T) {
	s := newTestStore(t)

	before, _, err := s.CalculatePrefixStats("b", "")
	require.NoError(t, err)

	_, err = s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "file.txt", Size: 10})
	require.NoError(t, err)

	ok, err := s.DeleteObject("b", "file.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	after, _, err := s.CalculatePrefixStats("b", "")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// Batch upsert of the same row set twice leaves the store byte-equal on
// observable columns.
func TestUpsertObjectsBatch_Idempotent(t *testing.T) {
	s := newTestStore(t)

	rows := []*model.IndexedObject{
		{Bucket: "b", Key: "a", Size: 1},
		{Bucket: "b", Key: "b", Size: 2},
	}
	n, err := s.UpsertObjectsBatch(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows2 := []*model.IndexedObject{
		{Bucket: "b", Key: "a", Size: 1},
		{Bucket: "b", Key: "b", Size: 2},
	}
	_, err = s.UpsertObjectsBatch(rows2)
	require.NoError(t, err)

	var count int64
	require.NoError(t, s.db.Model(&model.IndexedObject{}).Where("bucket = ?", "b").Count(&count).Error)
	assert.Equal(t, int64(2), count)

	a, err := s.GetObject("b", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Size)
}

func TestCalculateBucketStats_ReadsInitialIndexCompletedFromBucketInfo(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "a", Size: 5})
	require.NoError(t, err)
	require.NoError(t, s.UpsertPrefixStatus(&model.PrefixStatus{Bucket: "b", Prefix: "", IsComplete: true}))

	stats, err := s.CalculateBucketStats("b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Count)
	assert.Equal(t, int64(5), stats.Size)
	// root PrefixStatus.is_complete=true must NOT make this true; only
	// BucketInfo.initial_index_completed does.
	assert.False(t, stats.IsComplete)

	require.NoError(t, s.UpsertBucketInfo(&model.BucketInfo{Bucket: "b", InitialIndexCompleted: true}))
	stats, err = s.CalculateBucketStats("b")
	require.NoError(t, err)
	assert.True(t, stats.IsComplete)
}

func TestSearchObjects_CaseInsensitiveOrderedByKey(t *testing.T) {
	s := newTestStore(t)

	for _, k := range []string{"b/Report.pdf", "a/report-final.txt", "c/unrelated.doc"} {
		_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: k, Size: 1})
		require.NoError(t, err)
	}

	results, err := s.SearchObjects("b", "report", "", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a/report-final.txt", results[0].Key)
	assert.Equal(t, "b/Report.pdf", results[1].Key)
}

func TestClearBucketIndex(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertObject(&model.IndexedObject{Bucket: "b", Key: "a", Size: 1})
	require.NoError(t, err)
	require.NoError(t, s.UpsertPrefixStatus(&model.PrefixStatus{Bucket: "b", Prefix: ""}))
	require.NoError(t, s.UpsertBucketInfo(&model.BucketInfo{Bucket: "b"}))

	require.NoError(t, s.ClearBucketIndex("b"))

	o, err := s.GetObject("b", "a")
	require.NoError(t, err)
	assert.Nil(t, o)

	bi, err := s.GetBucketInfo("b")
	require.NoError(t, err)
	assert.Nil(t, bi)
}
