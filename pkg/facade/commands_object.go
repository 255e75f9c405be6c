// Object-level commands beyond the core list/delete/copy surface already in
// facade.go: folder creation, move, presigned URLs, tagging, metadata
// update, object-lock status, and version listing.
package facade

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/AccessDevops/S3Explorer/internal/telemetry"
	"github.com/AccessDevops/S3Explorer/pkg/gateway"
	"github.com/AccessDevops/S3Explorer/pkg/model"
	"github.com/AccessDevops/S3Explorer/pkg/transfer"
	"github.com/AccessDevops/S3Explorer/pkg/validate"
)

// CreateFolder creates a zero-byte folder marker at path within bucket,
// normalizing path into a valid prefix first.
func (f *Facade) CreateFolder(ctx context.Context, profileID, bucket, path string) error {
	prefix, err := validate.FolderPath(path)
	if err != nil {
		return err
	}
	if err := validate.BucketName(bucket); err != nil {
		return err
	}

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}

	if _, err := conn.gw.PutObject(ctx, gateway.PutObjectInput{Bucket: bucket, Key: prefix}); err != nil {
		return err
	}
	return conn.idx.AddObject(ctx, &model.IndexedObject{Bucket: bucket, Key: prefix, IndexedAt: time.Now().UnixMilli()})
}

// MoveObject copies src to dst then deletes src, reconciling the index for
// both the addition and the removal. S3 has no native rename; this mirrors
// the UI's "move" affordance as copy+delete.
func (f *Facade) MoveObject(ctx context.Context, profileID, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := f.CopyObject(ctx, profileID, srcBucket, srcKey, dstBucket, dstKey); err != nil {
		return err
	}
	return f.DeleteObject(ctx, profileID, srcBucket, srcKey)
}

// PresignURL returns a time-bounded URL granting direct GET or PUT access
// to (bucket, key) without further credentials.
func (f *Facade) PresignURL(ctx context.Context, profileID, bucket, key string, expiry time.Duration, forUpload bool) (string, error) {
	if err := validate.ObjectKey(key); err != nil {
		return "", err
	}
	if err := validate.PresignExpiry(expiry); err != nil {
		return "", err
	}

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return "", err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return "", err
	}

	if forUpload {
		return conn.gw.PresignPutObject(ctx, bucket, key, expiry)
	}
	return conn.gw.PresignGetObject(ctx, bucket, key, expiry)
}

// ListObjectVersions lists the version history of keys under prefix.
func (f *Facade) ListObjectVersions(ctx context.Context, profileID, bucket, prefix, keyMarker, versionMarker string) (*gateway.ListVersionsOutput, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return conn.gw.ListObjectVersions(ctx, gateway.ListVersionsInput{
		Bucket: bucket, Prefix: prefix, KeyMarker: keyMarker, VersionIDMarker: versionMarker, MaxKeys: 1000,
	})
}

// DeleteObjectVersion deletes one specific version of key, distinct from
// DeleteObject which removes the current version.
func (f *Facade) DeleteObjectVersion(ctx context.Context, profileID, bucket, key, versionID string) error {
	if err := validate.ObjectKey(key); err != nil {
		return err
	}
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}
	return conn.gw.DeleteObjectVersion(ctx, bucket, key, versionID)
}

// GetObjectTags returns key's tag set.
func (f *Facade) GetObjectTags(ctx context.Context, profileID, bucket, key string) (map[string]string, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return conn.gw.GetObjectTagging(ctx, bucket, key)
}

// PutObjectTags replaces key's tag set.
func (f *Facade) PutObjectTags(ctx context.Context, profileID, bucket, key string, tags map[string]string) error {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}
	return conn.gw.PutObjectTagging(ctx, bucket, key, tags)
}

// DeleteObjectTags removes every tag from key.
func (f *Facade) DeleteObjectTags(ctx context.Context, profileID, bucket, key string) error {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}
	return conn.gw.DeleteObjectTagging(ctx, bucket, key)
}

// UpdateObjectMetadata rewrites key's ContentType via a self-copy with
// MetadataDirective=REPLACE, the only way S3 supports mutating an object's
// system metadata in place.
func (f *Facade) UpdateObjectMetadata(ctx context.Context, profileID, bucket, key, contentType string) error {
	if err := validate.ObjectKey(key); err != nil {
		return err
	}
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}
	return conn.gw.CopyObject(ctx, gateway.CopyObjectInput{
		SrcBucket: bucket, SrcKey: key, DstBucket: bucket, DstKey: key,
		ContentType: contentType, ReplaceMetadata: true,
	})
}

// GetObjectMetadata returns key's current HEAD metadata.
func (f *Facade) GetObjectMetadata(ctx context.Context, profileID, bucket, key string) (*gateway.ObjectMeta, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return conn.gw.HeadObject(ctx, bucket, key)
}

// ObjectLockStatus is the result of GetObjectLockStatus.
type ObjectLockStatus struct {
	RetentionMode   string
	RetainUntilDate time.Time
	LegalHoldOn     bool
}

// GetObjectLockStatus reports key's retention and legal-hold state. An
// underlying "object lock not configured" response from either call is
// already folded into a zero-value result by the gateway, not surfaced as
// an error.
func (f *Facade) GetObjectLockStatus(ctx context.Context, profileID, bucket, key string) (*ObjectLockStatus, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}

	retention, err := conn.gw.GetObjectRetention(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	legalHold, err := conn.gw.GetObjectLegalHold(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	status := &ObjectLockStatus{LegalHoldOn: legalHold}
	if retention != nil {
		status.RetentionMode = retention.Mode
		status.RetainUntilDate = retention.RetainUntilDate
	}
	return status, nil
}

// UploadFromBytes writes data to a uniquely named temp file then delegates
// to StartUpload, so in-memory content (clipboard, generated files) reuses
// the same multipart/threshold upload path as a filesystem upload.
func (f *Facade) UploadFromBytes(ctx context.Context, profileID, bucket, key string, data []byte, contentType string) (string, error) {
	tmp, err := os.CreateTemp("", "s3x-upload-"+uuid.NewString()+"-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", closeErr
	}

	transferID, err := f.StartUploadCleanup(ctx, profileID, bucket, key, tmpPath, contentType)
	if err != nil {
		os.Remove(tmpPath)
	}
	return transferID, err
}

// StartUploadCleanup is StartUpload plus temp-file removal once the
// background upload goroutine reaches a terminal state, used by
// UploadFromBytes so its temp file never outlives the transfer.
func (f *Facade) StartUploadCleanup(ctx context.Context, profileID, bucket, key, filePath, contentType string) (string, error) {
	ctx, span := telemetry.StartFacadeSpan(ctx, "upload_from_bytes", telemetry.Profile(profileID), telemetry.Bucket(bucket))
	defer span.End()

	in := transfer.UploadInput{Bucket: bucket, Key: key, FilePath: filePath, ContentType: contentType}
	if err := validate.BucketName(in.Bucket); err != nil {
		return "", err
	}
	if err := validate.ObjectKey(in.Key); err != nil {
		return "", err
	}

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return "", err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return "", err
	}

	transferID := uuid.NewString()
	handle := newCancelHandle()
	f.mu.Lock()
	f.activeUploads[transferID] = handle
	f.mu.Unlock()

	go func() {
		f.runUpload(context.Background(), conn, profileID, p.Name, transferID, in, handle)
		os.Remove(filePath)
	}()
	return transferID, nil
}
