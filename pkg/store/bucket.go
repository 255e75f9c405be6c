package store

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/model"
)

// BucketStats is the result of CalculateBucketStats.
type BucketStats struct {
	Count      int64
	Size       int64
	IsComplete bool
}

// CalculateBucketStats aggregates every non-folder object in bucket.
// IsComplete reads BucketInfo.initial_index_completed, not the root
// PrefixStatus.
func (s *IndexStore) CalculateBucketStats(bucket string) (BucketStats, error) {
	var agg struct {
		Count int64
		Size  int64
	}
	err := s.db.Model(&model.IndexedObject{}).
		Select("COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Where("profile = ? AND bucket = ? AND is_folder = ?", s.profile, bucket, false).
		Scan(&agg).Error
	if err != nil {
		return BucketStats{}, errs.Wrap(errs.DatabaseError, "calculate bucket stats", err).WithPath(bucket)
	}

	var info model.BucketInfo
	err = s.db.Where("profile = ? AND bucket = ?", s.profile, bucket).First(&info).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return BucketStats{}, errs.Wrap(errs.DatabaseError, "calculate bucket stats: read bucket info", err).WithPath(bucket)
	}

	return BucketStats{Count: agg.Count, Size: agg.Size, IsComplete: info.InitialIndexCompleted}, nil
}

// StorageClassStat is one row of GetStorageClassStats.
type StorageClassStat struct {
	StorageClass string
	Count        int64
	Size         int64
}

// GetStorageClassStats aggregates object count and size per storage class.
func (s *IndexStore) GetStorageClassStats(bucket string) ([]StorageClassStat, error) {
	var rows []StorageClassStat
	err := s.db.Model(&model.IndexedObject{}).
		Select("storage_class, COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Where("profile = ? AND bucket = ? AND is_folder = ?", s.profile, bucket, false).
		Group("storage_class").
		Scan(&rows).Error
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "get storage class stats", err).WithPath(bucket)
	}
	return rows, nil
}

// BucketIndexSummary is one row of GetAllBucketIndexes.
type BucketIndexSummary struct {
	Bucket                string
	ObjectsCount          int64
	TotalSize             int64
	InitialIndexCompleted bool
	LastCheckedAt         *time.Time
}

// GetAllBucketIndexes returns per-bucket summaries across every bucket this
// profile has indexed, via a single scan with a left join to BucketInfo.
func (s *IndexStore) GetAllBucketIndexes() ([]BucketIndexSummary, error) {
	var rows []BucketIndexSummary
	err := s.db.Table("objects").
		Select(`objects.bucket AS bucket,
			COUNT(*) FILTER (WHERE objects.is_folder = 0) AS objects_count,
			COALESCE(SUM(CASE WHEN objects.is_folder = 0 THEN objects.size ELSE 0 END), 0) AS total_size,
			COALESCE(bucket_info.initial_index_completed, 0) AS initial_index_completed,
			bucket_info.last_checked_at AS last_checked_at`).
		Joins("LEFT JOIN bucket_info ON bucket_info.profile = objects.profile AND bucket_info.bucket = objects.bucket").
		Where("objects.profile = ?", s.profile).
		Group("objects.bucket, bucket_info.initial_index_completed, bucket_info.last_checked_at").
		Scan(&rows).Error
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "get all bucket indexes", err)
	}
	return rows, nil
}

// UpsertBucketInfo writes bi, applying COALESCE-style partial updates: an
// empty string field, a zero InitialIndexRequests or a nil LastCheckedAt in
// bi keeps the stored value. InitialIndexCompleted is always written as given.
func (s *IndexStore) UpsertBucketInfo(bi *model.BucketInfo) error {
	bi.Profile = s.profile

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing model.BucketInfo
		err := tx.Where("profile = ? AND bucket = ?", s.profile, bi.Bucket).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(bi).Error
		}
		if err != nil {
			return err
		}

		bi.ID = existing.ID
		if bi.Versioning == "" {
			bi.Versioning = existing.Versioning
		}
		if bi.Encryption == "" {
			bi.Encryption = existing.Encryption
		}
		if bi.ACL == "" {
			bi.ACL = existing.ACL
		}
		if bi.Region == "" {
			bi.Region = existing.Region
		}
		if bi.InitialIndexRequests == 0 {
			bi.InitialIndexRequests = existing.InitialIndexRequests
		}
		if bi.LastCheckedAt == nil {
			bi.LastCheckedAt = existing.LastCheckedAt
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile"}, {Name: "bucket"}},
			UpdateAll: true,
		}).Save(bi).Error
	})
}

// GetBucketInfo returns the BucketInfo row for bucket, or nil if absent.
func (s *IndexStore) GetBucketInfo(bucket string) (*model.BucketInfo, error) {
	var bi model.BucketInfo
	err := s.db.Where("profile = ? AND bucket = ?", s.profile, bucket).First(&bi).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "get bucket info", err).WithPath(bucket)
	}
	return &bi, nil
}

// ClearBucketIndex deletes every object, prefix_status, and bucket_info row
// for bucket in a single transaction.
func (s *IndexStore) ClearBucketIndex(bucket string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile = ? AND bucket = ?", s.profile, bucket).Delete(&model.IndexedObject{}).Error; err != nil {
			return err
		}
		if err := tx.Where("profile = ? AND bucket = ?", s.profile, bucket).Delete(&model.PrefixStatus{}).Error; err != nil {
			return err
		}
		return tx.Where("profile = ? AND bucket = ?", s.profile, bucket).Delete(&model.BucketInfo{}).Error
	})
	if err != nil {
		return errs.Wrap(errs.DatabaseError, "clear bucket index", err).WithPath(bucket)
	}
	return nil
}

// Optimize compacts the database file and refreshes the query planner's
// statistics (sqlite VACUUM + ANALYZE).
func (s *IndexStore) Optimize() error {
	if err := s.db.Exec("VACUUM").Error; err != nil {
		return errs.Wrap(errs.DatabaseError, "optimize: vacuum", err)
	}
	if err := s.db.Exec("ANALYZE").Error; err != nil {
		return errs.Wrap(errs.DatabaseError, "optimize: analyze", err)
	}
	return nil
}
