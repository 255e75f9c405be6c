package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccessDevops/S3Explorer/pkg/events"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func metric(op string, cat events.RequestCategory, success bool, bytes int64) events.S3RequestMetric {
	return events.NewS3RequestMetric("id-"+op, op, cat, "p1", "profile one", "bkt", "a/key",
		42*time.Millisecond, bytes, 1, success, "", "")
}

func TestRecordRequest_RollsUpDaily(t *testing.T) {
	s := newTestSink(t)

	require.NoError(t, s.RecordRequest(metric("GetObject", events.CategoryGet, true, 100)))
	require.NoError(t, s.RecordRequest(metric("GetObject", events.CategoryGet, false, 0)))
	require.NoError(t, s.RecordRequest(metric("PutObject", events.CategoryPut, true, 50)))

	day := time.Now().UTC().Format("2006-01-02")
	stats, err := s.DailyStats(day)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byCategory := make(map[string]DailyStat, len(stats))
	for _, st := range stats {
		byCategory[st.Category] = st
	}
	get := byCategory["GET"]
	assert.Equal(t, int64(2), get.RequestCount)
	assert.Equal(t, int64(1), get.SuccessCount)
	assert.Equal(t, int64(100), get.BytesTransferred)

	put := byCategory["PUT"]
	assert.Equal(t, int64(1), put.RequestCount)
	assert.Equal(t, int64(1), put.SuccessCount)
}

func TestHourlyStats_BucketsByHour(t *testing.T) {
	s := newTestSink(t)

	require.NoError(t, s.RecordRequest(metric("ListObjectsV2", events.CategoryList, true, 0)))

	day := time.Now().UTC().Format("2006-01-02")
	stats, err := s.HourlyStats(day)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "LIST", stats[0].Category)
	assert.Equal(t, int64(1), stats[0].RequestCount)
	assert.Equal(t, int64(1), stats[0].SuccessCount)
}

func TestHourlyStats_RejectsBadDay(t *testing.T) {
	s := newTestSink(t)
	_, err := s.HourlyStats("not-a-day")
	assert.Error(t, err)
}

func TestPurgeOlderThan(t *testing.T) {
	s := newTestSink(t)

	old := metric("GetObject", events.CategoryGet, true, 0)
	old.TimestampMs = time.Now().Add(-40 * 24 * time.Hour).UnixMilli()
	require.NoError(t, s.RecordRequest(old))
	require.NoError(t, s.RecordRequest(metric("GetObject", events.CategoryGet, true, 0)))
	require.NoError(t, s.RecordCacheEvent("facade.connections", "hit", "p1"))

	deleted, err := s.PurgeOlderThan(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// the fresh request and cache event survive
	day := time.Now().UTC().Format("2006-01-02")
	stats, err := s.HourlyStats(day)
	require.NoError(t, err)
	assert.Len(t, stats, 1)
}
