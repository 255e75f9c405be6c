// Index query/maintenance commands beyond StartIndexing/CancelIndexing
// already in facade.go.
package facade

import (
	"context"
	"os"

	"github.com/AccessDevops/S3Explorer/pkg/model"
	"github.com/AccessDevops/S3Explorer/pkg/profile"
	"github.com/AccessDevops/S3Explorer/pkg/store"
)

// GetBucketIndexStats returns bucket's aggregate index statistics.
func (f *Facade) GetBucketIndexStats(ctx context.Context, profileID, bucket string) (store.BucketStats, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return store.BucketStats{}, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return store.BucketStats{}, err
	}
	return conn.handle.CalculateBucketStats(bucket)
}

// GetPrefixIndexStats returns (count, size) for non-folder objects under
// prefix, at any depth.
func (f *Facade) GetPrefixIndexStats(ctx context.Context, profileID, bucket, prefix string) (int64, int64, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return 0, 0, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return 0, 0, err
	}
	return conn.handle.CalculatePrefixStats(bucket, prefix)
}

// ClearIndex removes every indexed row for bucket under profileID, without
// touching S3 itself.
func (f *Facade) ClearIndex(ctx context.Context, profileID, bucket string) error {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}
	return conn.handle.ClearBucketIndex(bucket)
}

// IsBucketIndexed reports whether any row exists for bucket at all,
// distinct from IsBucketComplete which asks whether indexing finished.
func (f *Facade) IsBucketIndexed(ctx context.Context, profileID, bucket string) (bool, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return false, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return false, err
	}
	info, err := conn.handle.GetBucketInfo(bucket)
	if err != nil {
		return false, err
	}
	if info != nil {
		return true, nil
	}
	root, err := conn.handle.GetPrefixStatus(bucket, "")
	if err != nil {
		return false, err
	}
	return root != nil, nil
}

// IsBucketComplete reports whether bucket's initial indexation finished.
func (f *Facade) IsBucketComplete(ctx context.Context, profileID, bucket string) (bool, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return false, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return false, err
	}
	info, err := conn.handle.GetBucketInfo(bucket)
	if err != nil {
		return false, err
	}
	return info != nil && info.InitialIndexCompleted, nil
}

// IsPrefixKnown reports whether any PrefixStatus row has been materialized
// at prefix, regardless of its completeness.
func (f *Facade) IsPrefixKnown(ctx context.Context, profileID, bucket, prefix string) (bool, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return false, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return false, err
	}
	ps, err := conn.handle.GetPrefixStatus(bucket, prefix)
	if err != nil {
		return false, err
	}
	return ps != nil, nil
}

// GetPrefixStatus returns the raw PrefixStatus row at prefix, or nil if
// none has been materialized there yet.
func (f *Facade) GetPrefixStatus(ctx context.Context, profileID, bucket, prefix string) (*model.PrefixStatus, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return conn.handle.GetPrefixStatus(bucket, prefix)
}

// IsPrefixDiscoveredOnly reports whether prefix has a PrefixStatus row that
// was only discovered (via a parent's delimited listing or top-level-folder
// discovery) and never itself indexed: is_complete=false with zero counts.
func (f *Facade) IsPrefixDiscoveredOnly(ctx context.Context, profileID, bucket, prefix string) (bool, error) {
	ps, err := f.GetPrefixStatus(ctx, profileID, bucket, prefix)
	if err != nil || ps == nil {
		return false, err
	}
	return !ps.IsComplete && ps.ObjectsCount == 0 && ps.TotalSize == 0 && ps.LastIndexedKey == "", nil
}

// GetIndexFileSize returns the size in bytes of profileID's on-disk index
// database file (including its WAL/SHM companions), for UI display.
func (f *Facade) GetIndexFileSize(profileID string) (int64, error) {
	path, err := profile.IndexFilePath(f.cfg.DataDir, profileID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if info, statErr := os.Stat(path + suffix); statErr == nil {
			total += info.Size()
		}
	}
	return total, nil
}

// PurgeStaleIndex deletes rows for bucket whose indexed_at predates
// now-hours, defaulting to the store's configured stale window when hours
// is zero.
func (f *Facade) PurgeStaleIndex(ctx context.Context, profileID, bucket string, hours int) (int64, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return 0, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return 0, err
	}
	if hours <= 0 {
		hours = conn.handle.DefaultStaleHours()
	}
	return conn.handle.PurgeStaleObjects(bucket, hours)
}

// OptimizeIndex compacts profileID's index database and refreshes its query
// planner statistics.
func (f *Facade) OptimizeIndex(ctx context.Context, profileID string) error {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}
	return conn.handle.Optimize()
}

// GetAllBucketIndexes returns per-bucket index summaries for profileID.
func (f *Facade) GetAllBucketIndexes(ctx context.Context, profileID string) ([]store.BucketIndexSummary, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return conn.idx.GetAllBucketIndexes()
}
