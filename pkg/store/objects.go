package store

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/model"
)

// UpsertObject inserts o, replacing any existing row for the same
// (profile, bucket, key, version_id) tuple, and recomputes its derived
// fields from Key before writing. Returns the row id.
func (s *IndexStore) UpsertObject(o *model.IndexedObject) (uint64, error) {
	o.Profile = s.profile
	o.ParentPrefix, o.Basename, o.Extension, o.Depth, o.IsFolder = model.DeriveKeyParts(o.Key)
	if o.IndexedAt == 0 {
		o.IndexedAt = time.Now().UnixMilli()
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}, {Name: "bucket"}, {Name: "key"}, {Name: "version_id"}},
		UpdateAll: true,
	}).Create(o).Error
	if err != nil {
		return 0, wrapWriteErr("upsert object", err).WithPath(o.Bucket + "/" + o.Key)
	}
	return o.ID, nil
}

// UpsertObjectsBatch upserts objects in a single transaction, reusing one
// prepared statement (gorm.Config.PrepareStmt on the session).
func (s *IndexStore) UpsertObjectsBatch(objects []*model.IndexedObject) (int, error) {
	if len(objects) == 0 {
		return 0, nil
	}

	now := time.Now().UnixMilli()
	for _, o := range objects {
		o.Profile = s.profile
		o.ParentPrefix, o.Basename, o.Extension, o.Depth, o.IsFolder = model.DeriveKeyParts(o.Key)
		if o.IndexedAt == 0 {
			o.IndexedAt = now
		}
	}

	err := s.db.Session(&gorm.Session{PrepareStmt: true}).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile"}, {Name: "bucket"}, {Name: "key"}, {Name: "version_id"}},
			UpdateAll: true,
		}).CreateInBatches(objects, 500).Error
	})
	if err != nil {
		return 0, wrapWriteErr("upsert objects batch", err)
	}
	return len(objects), nil
}

// DeleteObject removes the current-version row for (bucket, key), if present.
func (s *IndexStore) DeleteObject(bucket, key string) (bool, error) {
	res := s.db.Where("profile = ? AND bucket = ? AND key = ?", s.profile, bucket, key).Delete(&model.IndexedObject{})
	if res.Error != nil {
		return false, errs.Wrap(errs.DatabaseError, "delete object", res.Error).WithPath(bucket + "/" + key)
	}
	return res.RowsAffected > 0, nil
}

// DeleteObjectsByPrefix removes every row whose key starts with prefix.
func (s *IndexStore) DeleteObjectsByPrefix(bucket, prefix string) (int64, error) {
	res := s.db.Where("profile = ? AND bucket = ? AND key LIKE ? ESCAPE '\\'", s.profile, bucket, escapeLike(prefix)+"%").
		Delete(&model.IndexedObject{})
	if res.Error != nil {
		return 0, errs.Wrap(errs.DatabaseError, "delete objects by prefix", res.Error).WithPath(bucket + "/" + prefix)
	}
	return res.RowsAffected, nil
}

// SyncPrefixObjects removes rows directly under prefix (parent_prefix = prefix)
// whose key is not present in currentKeys. An empty currentKeys deletes every
// such row. Runs in a single transaction, deleting the missing keys with an
// IN list of at most 500 keys per statement.
func (s *IndexStore) SyncPrefixObjects(bucket, prefix string, currentKeys []string) (int64, error) {
	var deleted int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(currentKeys) == 0 {
			res := tx.Where("profile = ? AND bucket = ? AND parent_prefix = ?", s.profile, bucket, prefix).
				Delete(&model.IndexedObject{})
			if res.Error != nil {
				return res.Error
			}
			deleted = res.RowsAffected
			return nil
		}

		const batchSize = 500
		keep := make(map[string]bool, len(currentKeys))
		for _, k := range currentKeys {
			keep[k] = true
		}

		var existing []string
		if err := tx.Model(&model.IndexedObject{}).
			Where("profile = ? AND bucket = ? AND parent_prefix = ?", s.profile, bucket, prefix).
			Pluck("key", &existing).Error; err != nil {
			return err
		}

		var toDelete []string
		for _, k := range existing {
			if !keep[k] {
				toDelete = append(toDelete, k)
			}
		}

		for i := 0; i < len(toDelete); i += batchSize {
			end := i + batchSize
			if end > len(toDelete) {
				end = len(toDelete)
			}
			res := tx.Where("profile = ? AND bucket = ? AND parent_prefix = ? AND key IN ?",
				s.profile, bucket, prefix, toDelete[i:end]).Delete(&model.IndexedObject{})
			if res.Error != nil {
				return res.Error
			}
			deleted += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, errs.Wrap(errs.DatabaseError, "sync prefix objects", err).WithPath(bucket + "/" + prefix)
	}
	return deleted, nil
}

// GetObject returns the current-version row for (bucket, key), or nil if absent.
func (s *IndexStore) GetObject(bucket, key string) (*model.IndexedObject, error) {
	var o model.IndexedObject
	err := s.db.Where("profile = ? AND bucket = ? AND key = ?", s.profile, bucket, key).First(&o).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "get object", err).WithPath(bucket + "/" + key)
	}
	return &o, nil
}

// SearchObjects returns rows in bucket whose key contains substr
// (case-insensitive), optionally restricted to a prefix, ordered by key
// ascending, optionally limited.
func (s *IndexStore) SearchObjects(bucket, substr string, prefix string, limit int) ([]*model.IndexedObject, error) {
	q := s.db.Where("profile = ? AND bucket = ?", s.profile, bucket).
		Where("LOWER(key) LIKE ? ESCAPE '\\'", "%"+strings.ToLower(escapeLike(substr))+"%")
	if prefix != "" {
		q = q.Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	}
	q = q.Order("key ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []*model.IndexedObject
	if err := q.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "search objects", err).WithPath(bucket)
	}
	return rows, nil
}

// PurgeStaleObjects deletes rows whose indexed_at predates now-hours.
func (s *IndexStore) PurgeStaleObjects(bucket string, hours int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour).UnixMilli()
	res := s.db.Where("profile = ? AND bucket = ? AND indexed_at < ?", s.profile, bucket, cutoff).
		Delete(&model.IndexedObject{})
	if res.Error != nil {
		return 0, errs.Wrap(errs.DatabaseError, "purge stale objects", res.Error).WithPath(bucket)
	}
	return res.RowsAffected, nil
}

// escapeLike escapes sqlite LIKE metacharacters in a literal prefix/substring
// so user-controlled bucket prefixes can't be misinterpreted as patterns.
func escapeLike(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "%", "\\%", "_", "\\_")
	return r.Replace(s)
}
