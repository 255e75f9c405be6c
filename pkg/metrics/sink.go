// Package metrics implements the MetricsSink: an
// append-only recorder of S3 request events and cache events, backed by its
// own sqlite file separate from any profile's IndexStore, with daily
// rollups and a 30-day auto-purge at startup.
//
// Grounded on pkg/store's gorm + glebarez/sqlite connection setup and
// hand-rolled schema_version migration convention, applied to the metrics
// schema instead of the object index schema.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/events"
)

// requestRow is the gorm row type for metrics_requests.
type requestRow struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	RequestID        string `gorm:"size:64"`
	TimestampMs      int64  `gorm:"index:ix_metrics_requests_ts"`
	Operation        string `gorm:"size:64"`
	Category         string `gorm:"size:16"`
	ProfileID        string `gorm:"size:128;index:ix_metrics_requests_profile"`
	ProfileName      string `gorm:"size:255"`
	Bucket           string `gorm:"size:63;index:ix_metrics_requests_profile"`
	ObjectKey        string `gorm:"size:200"`
	DurationMs       int64
	BytesTransferred int64
	ObjectsAffected  int
	Success          bool
	ErrorCategory    string `gorm:"size:64"`
	ErrorMessage     string `gorm:"size:500"`
}

func (requestRow) TableName() string { return "metrics_requests" }

// dailyStatRow is the gorm row type for metrics_daily_stats.
type dailyStatRow struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	Day             string `gorm:"size:10;uniqueIndex:ux_metrics_daily"`
	Category        string `gorm:"size:16;uniqueIndex:ux_metrics_daily"`
	RequestCount    int64
	SuccessCount    int64
	BytesTransferred int64
	TotalDurationMs int64
}

func (dailyStatRow) TableName() string { return "metrics_daily_stats" }

// cacheEventRow is the gorm row type for metrics_cache_events.
type cacheEventRow struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	TimestampMs int64  `gorm:"index:ix_metrics_cache_events_ts"`
	CacheName   string `gorm:"size:64"`
	Event       string `gorm:"size:32"`
	CacheKey    string `gorm:"size:255"`
}

func (cacheEventRow) TableName() string { return "metrics_cache_events" }

// Sink is the MetricsSink: an append-only recorder with rollup queries.
type Sink struct {
	db *gorm.DB
}

// Open connects to (creating if absent) the metrics sqlite file at path,
// applies schema migrations, and purges rows older than 30 days
//.
func Open(path string) (*Sink, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errs.Wrap(errs.DatabaseError, "create metrics store directory", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "open metrics store", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "access underlying sql.DB", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := runMigrations(sqlDB); err != nil {
		return nil, err
	}

	s := &Sink{db: db}
	if _, err := s.PurgeOlderThan(30 * 24 * time.Hour); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Sink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errs.Wrap(errs.DatabaseError, "access underlying sql.DB", err)
	}
	return sqlDB.Close()
}

// RecordRequest appends one S3RequestMetric event.
func (s *Sink) RecordRequest(m events.S3RequestMetric) error {
	row := requestRow{
		RequestID: m.ID, TimestampMs: m.TimestampMs, Operation: m.Operation,
		Category: string(m.Category), ProfileID: m.ProfileID, ProfileName: m.ProfileName,
		Bucket: m.Bucket, ObjectKey: m.ObjectKey, DurationMs: m.DurationMs,
		BytesTransferred: m.BytesTransferred, ObjectsAffected: m.ObjectsAffected,
		Success: m.Success, ErrorCategory: m.ErrorCategory, ErrorMessage: m.ErrorMessage,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return errs.Wrap(errs.DatabaseError, "record request metric", err)
	}
	return s.rollupDaily(row)
}

func (s *Sink) rollupDaily(row requestRow) error {
	day := time.UnixMilli(row.TimestampMs).UTC().Format("2006-01-02")

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing dailyStatRow
		err := tx.Where("day = ? AND category = ?", day, row.Category).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			existing = dailyStatRow{Day: day, Category: row.Category}
		} else if err != nil {
			return err
		}

		existing.RequestCount++
		if row.Success {
			existing.SuccessCount++
		}
		existing.BytesTransferred += row.BytesTransferred
		existing.TotalDurationMs += row.DurationMs

		return tx.Save(&existing).Error
	})
}

// RecordCacheEvent appends one cache hit/miss/eviction/insertion event.
func (s *Sink) RecordCacheEvent(cacheName, event, key string) error {
	row := cacheEventRow{TimestampMs: time.Now().UnixMilli(), CacheName: cacheName, Event: event, CacheKey: key}
	if err := s.db.Create(&row).Error; err != nil {
		return errs.Wrap(errs.DatabaseError, "record cache event", err)
	}
	return nil
}

// DailyStat is one row of DailyStats.
type DailyStat struct {
	Day              string
	Category         string
	RequestCount     int64
	SuccessCount     int64
	BytesTransferred int64
	TotalDurationMs  int64
}

// DailyStats returns the daily rollup rows for day (YYYY-MM-DD).
func (s *Sink) DailyStats(day string) ([]DailyStat, error) {
	var rows []dailyStatRow
	if err := s.db.Where("day = ?", day).Find(&rows).Error; err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "read daily stats", err)
	}
	out := make([]DailyStat, len(rows))
	for i, r := range rows {
		out[i] = DailyStat{Day: r.Day, Category: r.Category, RequestCount: r.RequestCount,
			SuccessCount: r.SuccessCount, BytesTransferred: r.BytesTransferred, TotalDurationMs: r.TotalDurationMs}
	}
	return out, nil
}

// HourlyStat is one row of HourlyStats, bucketed from metrics_requests
// directly (no separate hourly rollup table — hourly granularity is
// recomputed on demand since it's queried far less often than daily).
type HourlyStat struct {
	Hour         string
	Category     string
	RequestCount int64
	SuccessCount int64
}

// HourlyStats aggregates metrics_requests into per-hour buckets for the
// UTC day given (YYYY-MM-DD).
func (s *Sink) HourlyStats(day string) ([]HourlyStat, error) {
	start, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil, errs.Wrap(errs.ValidationError, "parse day", err).WithPath(day)
	}
	end := start.Add(24 * time.Hour)

	type row struct {
		Hour         string
		Category     string
		RequestCount int64
		SuccessCount int64
	}
	var rows []row
	err = s.db.Model(&requestRow{}).
		Select(`strftime('%Y-%m-%dT%H:00:00Z', timestamp_ms / 1000, 'unixepoch') AS hour,
			category, COUNT(*) AS request_count,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) AS success_count`).
		Where("timestamp_ms >= ? AND timestamp_ms < ?", start.UnixMilli(), end.UnixMilli()).
		Group("hour, category").
		Order("hour ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "read hourly stats", err).WithPath(day)
	}

	out := make([]HourlyStat, len(rows))
	for i, r := range rows {
		out[i] = HourlyStat{Hour: r.Hour, Category: r.Category, RequestCount: r.RequestCount, SuccessCount: r.SuccessCount}
	}
	return out, nil
}

// PurgeOlderThan deletes metrics_requests and metrics_cache_events rows
// older than age.
func (s *Sink) PurgeOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UnixMilli()
	var total int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("timestamp_ms < ?", cutoff).Delete(&requestRow{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		res = tx.Where("timestamp_ms < ?", cutoff).Delete(&cacheEventRow{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, errs.Wrap(errs.DatabaseError, "purge stale metrics", err)
	}
	return total, nil
}
