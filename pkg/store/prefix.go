package store

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/model"
)

// UpsertPrefixStatus writes ps and materializes every ancestor prefix up to
// the root in the same transaction, inserting a placeholder row
// {is_complete:false, counts:0} for any ancestor not already present, so
// every stored prefix's full ancestor chain always has rows.
func (s *IndexStore) UpsertPrefixStatus(ps *model.PrefixStatus) error {
	ps.Profile = s.profile

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile"}, {Name: "bucket"}, {Name: "prefix"}},
			UpdateAll: true,
		}).Create(ps).Error; err != nil {
			return err
		}
		return materializeAncestors(tx, s.profile, ps.Bucket, ps.Prefix)
	})
	if err != nil {
		return wrapWriteErr("upsert prefix status", err).WithPath(ps.Bucket + "/" + ps.Prefix)
	}
	return nil
}

// materializeAncestors inserts a placeholder PrefixStatus row for every
// ancestor of prefix that isn't already present, walking right to left.
func materializeAncestors(tx *gorm.DB, profile, bucket, prefix string) error {
	for _, ancestor := range model.AncestorChain(prefix)[1:] {
		row := model.PrefixStatus{Profile: profile, Bucket: bucket, Prefix: ancestor, IsComplete: false}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// BatchUpsertPrefixStatus upserts many PrefixStatus rows in one transaction
// with a reused prepared statement, materializing ancestors for each.
func (s *IndexStore) BatchUpsertPrefixStatus(rows []*model.PrefixStatus) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		r.Profile = s.profile
	}

	err := s.db.Session(&gorm.Session{PrepareStmt: true}).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile"}, {Name: "bucket"}, {Name: "prefix"}},
			UpdateAll: true,
		}).CreateInBatches(rows, 500).Error; err != nil {
			return err
		}
		for _, r := range rows {
			if err := materializeAncestors(tx, s.profile, r.Bucket, r.Prefix); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapWriteErr("batch upsert prefix status", err)
	}
	return nil
}

// MarkPrefixAndAncestorsIncomplete builds the ancestor set once in memory,
// materializes any chain member still missing (a post-mutation hook can fire
// on a prefix never listed before), and issues a single UPDATE with an
// IN (...) list across the whole chain.
func (s *IndexStore) MarkPrefixAndAncestorsIncomplete(bucket, prefix string) error {
	ancestors := model.AncestorChain(prefix)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, ancestor := range ancestors {
			row := model.PrefixStatus{Profile: s.profile, Bucket: bucket, Prefix: ancestor, IsComplete: false}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.PrefixStatus{}).
			Where("profile = ? AND bucket = ? AND prefix IN ?", s.profile, bucket, ancestors).
			Update("is_complete", false).Error
	})
	if err != nil {
		return errs.Wrap(errs.DatabaseError, "mark prefix and ancestors incomplete", err).WithPath(bucket + "/" + prefix)
	}
	return nil
}

// DeletePrefixStatus removes the PrefixStatus row for (bucket, prefix).
func (s *IndexStore) DeletePrefixStatus(bucket, prefix string) error {
	err := s.db.Where("profile = ? AND bucket = ? AND prefix = ?", s.profile, bucket, prefix).
		Delete(&model.PrefixStatus{}).Error
	if err != nil {
		return errs.Wrap(errs.DatabaseError, "delete prefix status", err).WithPath(bucket + "/" + prefix)
	}
	return nil
}

// CleanupOrphanPrefixStatus removes non-root PrefixStatus rows that have no
// matching object anywhere under them.
func (s *IndexStore) CleanupOrphanPrefixStatus(bucket string) (int64, error) {
	res := s.db.Where(`profile = ? AND bucket = ? AND prefix != '' AND NOT EXISTS (
		SELECT 1 FROM objects o WHERE o.profile = prefix_status.profile
			AND o.bucket = prefix_status.bucket
			AND (o.parent_prefix = prefix_status.prefix OR o.parent_prefix LIKE prefix_status.prefix || '%' ESCAPE '\')
	)`, s.profile, bucket).Delete(&model.PrefixStatus{})
	if res.Error != nil {
		return 0, errs.Wrap(errs.DatabaseError, "cleanup orphan prefix status", res.Error).WithPath(bucket)
	}
	return res.RowsAffected, nil
}

// CalculatePrefixStats returns the (count, size) of non-folder objects
// whose key starts with prefix, at any depth.
func (s *IndexStore) CalculatePrefixStats(bucket, prefix string) (int64, int64, error) {
	type result struct {
		Count int64
		Size  int64
	}
	var r result
	err := s.db.Model(&model.IndexedObject{}).
		Select("COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Where("profile = ? AND bucket = ? AND key LIKE ? ESCAPE '\\' AND is_folder = ?", s.profile, bucket, escapeLike(prefix)+"%", false).
		Scan(&r).Error
	if err != nil {
		return 0, 0, errs.Wrap(errs.DatabaseError, "calculate prefix stats", err).WithPath(bucket + "/" + prefix)
	}
	return r.Count, r.Size, nil
}

// PrefixStats is one row of CalculateAllPrefixStatsBatch's result.
type PrefixStats struct {
	Count int64
	Size  int64
}

// CalculateAllPrefixStatsBatch returns (count, size) per parent_prefix for
// every non-folder object in bucket, via a single GROUP BY.
func (s *IndexStore) CalculateAllPrefixStatsBatch(bucket string) (map[string]PrefixStats, error) {
	type row struct {
		ParentPrefix string
		Count        int64
		Size         int64
	}
	var rows []row
	err := s.db.Model(&model.IndexedObject{}).
		Select("parent_prefix, COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Where("profile = ? AND bucket = ? AND is_folder = ?", s.profile, bucket, false).
		Group("parent_prefix").
		Scan(&rows).Error
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "calculate all prefix stats batch", err).WithPath(bucket)
	}

	out := make(map[string]PrefixStats, len(rows))
	for _, r := range rows {
		out[r.ParentPrefix] = PrefixStats{Count: r.Count, Size: r.Size}
	}
	return out, nil
}

// IsPrefixComplete implements the ordered-shortcut completeness decision:
//
//  1. BucketInfo.initial_index_completed = true -> true.
//  2. Non-empty prefix: if the root PrefixStatus's last_indexed_key sorts
//     strictly past prefix's key-space (S3 list order is strict lexicographic),
//     the prefix must already be fully covered -> true.
//  3. Otherwise require an is_complete row at prefix, no incomplete descendant,
//     and no indexed object whose parent_prefix lacks its own PrefixStatus row.
func (s *IndexStore) IsPrefixComplete(bucket, prefix string) (bool, error) {
	var info model.BucketInfo
	err := s.db.Where("profile = ? AND bucket = ?", s.profile, bucket).First(&info).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return false, errs.Wrap(errs.DatabaseError, "is prefix complete: read bucket info", err).WithPath(bucket)
	}
	if err == nil && info.InitialIndexCompleted {
		return true, nil
	}

	if prefix != "" {
		var root model.PrefixStatus
		err := s.db.Where("profile = ? AND bucket = ? AND prefix = ?", s.profile, bucket, "").First(&root).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return false, errs.Wrap(errs.DatabaseError, "is prefix complete: read root prefix status", err).WithPath(bucket)
		}
		if err == nil && root.LastIndexedKey != "" && pastKeySpace(root.LastIndexedKey, prefix) {
			return true, nil
		}
	}

	var own model.PrefixStatus
	err = s.db.Where("profile = ? AND bucket = ? AND prefix = ?", s.profile, bucket, prefix).First(&own).Error
	if err == gorm.ErrRecordNotFound || !own.IsComplete {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(errs.DatabaseError, "is prefix complete: read own prefix status", err).WithPath(bucket + "/" + prefix)
	}

	var incompleteDescendants int64
	if err := s.db.Model(&model.PrefixStatus{}).
		Where("profile = ? AND bucket = ? AND prefix LIKE ? ESCAPE '\\' AND prefix != ? AND is_complete = ?",
			s.profile, bucket, escapeLike(prefix)+"%", prefix, false).
		Count(&incompleteDescendants).Error; err != nil {
		return false, errs.Wrap(errs.DatabaseError, "is prefix complete: count incomplete descendants", err).WithPath(bucket + "/" + prefix)
	}
	if incompleteDescendants > 0 {
		return false, nil
	}

	var unexplored int64
	if err := s.db.Raw(`SELECT COUNT(*) FROM objects o WHERE o.profile = ? AND o.bucket = ?
		AND o.parent_prefix LIKE ? ESCAPE '\'
		AND NOT EXISTS (SELECT 1 FROM prefix_status ps WHERE ps.profile = o.profile AND ps.bucket = o.bucket AND ps.prefix = o.parent_prefix)`,
		s.profile, bucket, escapeLike(prefix)+"%").Scan(&unexplored).Error; err != nil {
		return false, errs.Wrap(errs.DatabaseError, "is prefix complete: count unexplored sub-prefixes", err).WithPath(bucket + "/" + prefix)
	}

	return unexplored == 0, nil
}

// GetPrefixStatus returns the PrefixStatus row for (bucket, prefix), or nil
// if no row has been materialized there yet.
func (s *IndexStore) GetPrefixStatus(bucket, prefix string) (*model.PrefixStatus, error) {
	var ps model.PrefixStatus
	err := s.db.Where("profile = ? AND bucket = ? AND prefix = ?", s.profile, bucket, prefix).First(&ps).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "get prefix status", err).WithPath(bucket + "/" + prefix)
	}
	return &ps, nil
}

// pastKeySpace reports whether lastIndexedKey, as the watermark of a strict
// lexicographic S3 listing, proves prefix's key-space has already been fully
// passed (so anything under prefix would already be known).
func pastKeySpace(lastIndexedKey, prefix string) bool {
	trimmed := strings.TrimSuffix(prefix, "/")
	topLevel := trimmed
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		topLevel = trimmed[:idx]
	}
	lastTop := lastIndexedKey
	if idx := strings.Index(lastIndexedKey, "/"); idx >= 0 {
		lastTop = lastIndexedKey[:idx]
	}
	if lastTop > topLevel {
		return true
	}
	return lastIndexedKey > prefix && !strings.HasPrefix(lastIndexedKey, prefix)
}
