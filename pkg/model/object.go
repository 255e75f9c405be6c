// Package model defines the IndexStore's row types and the key-derivation
// algorithms derived from object keys: IndexedObject, PrefixStatus, and
// BucketInfo, plus pure helpers for deriving an object's parent prefix,
// basename, extension, and depth from its key.
package model

import (
	"strings"
	"time"
)

// IndexedObject mirrors one row per known (profile, bucket, key[, version_id]).
type IndexedObject struct {
	ID                uint64 `gorm:"primaryKey;autoIncrement"`
	Profile           string `gorm:"size:128;not null;uniqueIndex:ux_object"`
	Bucket            string `gorm:"size:63;not null;uniqueIndex:ux_object;index:ix_object_bucket"`
	Key               string `gorm:"size:1024;not null;uniqueIndex:ux_object;index:ix_object_bucket"`
	VersionID         string `gorm:"size:255;not null;default:'';uniqueIndex:ux_object"`
	Size              int64
	LastModified      string `gorm:"size:40"` // RFC3339
	ETag              string `gorm:"size:255"`
	StorageClass      string `gorm:"size:64"`
	OwnerID           string `gorm:"size:255"`
	OwnerDisplayName  string `gorm:"size:255"`
	ChecksumAlgorithm string `gorm:"size:32"`
	RestoreStatus     string `gorm:"size:64"`
	ContentType       string `gorm:"size:255"`
	SSEAlgorithm      string `gorm:"size:64"`
	SSEKMSKeyID       string `gorm:"size:255"`

	// Derived fields, recomputed on every upsert from Key.
	ParentPrefix string `gorm:"size:1024;index:ix_object_parent"`
	Basename     string `gorm:"size:1024"`
	Extension    string `gorm:"size:64"`
	Depth        int
	IsFolder     bool

	IndexedAt      int64 // monotonic wall-clock milliseconds
	MetadataLoaded bool
}

// TableName pins the table name explicitly rather than relying on gorm's
// pluralization guess.
func (IndexedObject) TableName() string { return "objects" }

// PrefixStatus mirrors one row per (profile, bucket, prefix) describing the
// indexation state of a key-space subtree. The empty prefix is the bucket root.
type PrefixStatus struct {
	ID                 uint64 `gorm:"primaryKey;autoIncrement"`
	Profile            string `gorm:"size:128;not null;uniqueIndex:ux_prefix"`
	Bucket             string `gorm:"size:63;not null;uniqueIndex:ux_prefix;index:ix_prefix_bucket"`
	Prefix             string `gorm:"size:1024;not null;uniqueIndex:ux_prefix"`
	IsComplete         bool
	ObjectsCount       int64
	TotalSize          int64
	ContinuationToken  string `gorm:"size:2048"`
	LastIndexedKey     string `gorm:"size:1024"`
	LastSyncStartedAt  *time.Time
	LastSyncCompletedAt *time.Time
}

func (PrefixStatus) TableName() string { return "prefix_status" }

// BucketInfo mirrors one row per (profile, bucket).
type BucketInfo struct {
	ID                    uint64 `gorm:"primaryKey;autoIncrement"`
	Profile               string `gorm:"size:128;not null;uniqueIndex:ux_bucket_info"`
	Bucket                string `gorm:"size:63;not null;uniqueIndex:ux_bucket_info"`
	Versioning            string `gorm:"size:32"`
	Encryption            string `gorm:"size:64"`
	ACL                   string `gorm:"size:32"`
	Region                string `gorm:"size:64"`
	InitialIndexRequests  int
	InitialIndexCompleted bool
	LastCheckedAt         *time.Time
}

func (BucketInfo) TableName() string { return "bucket_info" }

// SchemaVersion tracks which migration has been applied to a per-profile
// index database file.
type SchemaVersion struct {
	ID      uint `gorm:"primaryKey"`
	Version int  `gorm:"not null"`
}

func (SchemaVersion) TableName() string { return "schema_version" }

// DeriveKeyParts computes parent_prefix, basename, extension, depth, and
// is_folder from an object key.
//
//   - parent_prefix: substring up to and including the last '/' (or empty)
//   - basename: the remainder
//   - extension: substring after the last '.' in basename, absent if none
//   - depth: count of '/' in parent_prefix
//   - is_folder: key ends with '/'
func DeriveKeyParts(key string) (parentPrefix, basename, extension string, depth int, isFolder bool) {
	isFolder = strings.HasSuffix(key, "/")

	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		parentPrefix = key[:idx+1]
		basename = key[idx+1:]
	} else {
		parentPrefix = ""
		basename = key
	}

	depth = strings.Count(parentPrefix, "/")

	if dot := strings.LastIndex(basename, "."); dot > 0 {
		extension = basename[dot+1:]
	}

	return parentPrefix, basename, extension, depth, isFolder
}

// ParentOf returns the immediate parent prefix of prefix (trimming the
// trailing component after the last '/', excluding the one just trimmed),
// or "" if prefix is already the root.
func ParentOf(prefix string) string {
	if prefix == "" {
		return ""
	}
	trimmed := strings.TrimSuffix(prefix, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[:idx+1]
	}
	return ""
}

// AncestorChain returns prefix and every ancestor up to and including the
// root ("") in descending-specificity order: {prefix, parent(prefix), ..., ""}.
// Used to keep the ancestor closure of prefix_status rows materialized and
// to build the IN (...) list for MarkPrefixAndAncestorsIncomplete.
func AncestorChain(prefix string) []string {
	chain := make([]string, 0, strings.Count(prefix, "/")+1)
	cur := prefix
	seen := make(map[string]bool)
	for {
		if seen[cur] {
			break
		}
		seen[cur] = true
		chain = append(chain, cur)
		if cur == "" {
			break
		}
		cur = ParentOf(cur)
	}
	return chain
}

// EstimateRowSize returns the UI-display size estimate for an indexed row
//, not a storage API.
func EstimateRowSize(o *IndexedObject) int {
	return 200 + len(o.Key) + len(o.ETag) + len(o.StorageClass) + len(o.ParentPrefix) + len(o.Basename)
}
