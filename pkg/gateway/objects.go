package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/AccessDevops/S3Explorer/internal/telemetry"
)

// ObjectSummary is one entry of a ListObjectsV2 page.
type ObjectSummary struct {
	Key          string
	Size         int64
	ETag         string
	LastModified string
	StorageClass string
	IsPrefix     bool // true for a common prefix ("folder") entry
}

// ListObjectsInput mirrors list_objects_v2's parameters.
type ListObjectsInput struct {
	Bucket            string
	Prefix            string
	Delimiter         string
	ContinuationToken string
	MaxKeys           int32
}

// ListObjectsOutput is one page of ListObjectsV2.
type ListObjectsOutput struct {
	Objects               []ObjectSummary
	NextContinuationToken string
	IsTruncated           bool
}

func (c *Client) ListObjectsV2(ctx context.Context, in ListObjectsInput) (*ListObjectsOutput, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "list_objects_v2", in.Bucket, "", telemetry.Prefix(in.Prefix))
	defer span.End()

	req := &s3.ListObjectsV2Input{
		Bucket: aws.String(in.Bucket),
	}
	if in.Prefix != "" {
		req.Prefix = aws.String(in.Prefix)
	}
	if in.Delimiter != "" {
		req.Delimiter = aws.String(in.Delimiter)
	}
	if in.ContinuationToken != "" {
		req.ContinuationToken = aws.String(in.ContinuationToken)
	}
	if in.MaxKeys > 0 {
		req.MaxKeys = aws.Int32(in.MaxKeys)
	}

	out, err := c.sdk.ListObjectsV2(ctx, req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("list_objects_v2", in.Bucket, "", err)
	}

	result := &ListObjectsOutput{
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
		IsTruncated:           aws.ToBool(out.IsTruncated),
	}
	for _, p := range out.CommonPrefixes {
		result.Objects = append(result.Objects, ObjectSummary{Key: aws.ToString(p.Prefix), IsPrefix: true})
	}
	for _, o := range out.Contents {
		var lastMod string
		if o.LastModified != nil {
			lastMod = o.LastModified.UTC().Format("2006-01-02T15:04:05Z")
		}
		result.Objects = append(result.Objects, ObjectSummary{
			Key:          aws.ToString(o.Key),
			Size:         aws.ToInt64(o.Size),
			ETag:         aws.ToString(o.ETag),
			LastModified: lastMod,
			StorageClass: string(o.StorageClass),
		})
	}
	return result, nil
}

// ObjectVersionSummary is one entry of ListObjectVersions.
type ObjectVersionSummary struct {
	Key          string
	VersionID    string
	IsLatest     bool
	IsDeleteMark bool
	Size         int64
	LastModified string
}

// ListVersionsInput mirrors list_object_versions's parameters.
type ListVersionsInput struct {
	Bucket          string
	Prefix          string
	KeyMarker       string
	VersionIDMarker string
	MaxKeys         int32
}

// ListVersionsOutput is one page of ListObjectVersions.
type ListVersionsOutput struct {
	Versions            []ObjectVersionSummary
	NextKeyMarker       string
	NextVersionIDMarker string
	IsTruncated         bool
}

func (c *Client) ListObjectVersions(ctx context.Context, in ListVersionsInput) (*ListVersionsOutput, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "list_object_versions", in.Bucket, "", telemetry.Prefix(in.Prefix))
	defer span.End()

	req := &s3.ListObjectVersionsInput{Bucket: aws.String(in.Bucket)}
	if in.Prefix != "" {
		req.Prefix = aws.String(in.Prefix)
	}
	if in.KeyMarker != "" {
		req.KeyMarker = aws.String(in.KeyMarker)
	}
	if in.VersionIDMarker != "" {
		req.VersionIdMarker = aws.String(in.VersionIDMarker)
	}
	if in.MaxKeys > 0 {
		req.MaxKeys = aws.Int32(in.MaxKeys)
	}

	out, err := c.sdk.ListObjectVersions(ctx, req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("list_object_versions", in.Bucket, "", err)
	}

	result := &ListVersionsOutput{
		NextKeyMarker:       aws.ToString(out.NextKeyMarker),
		NextVersionIDMarker: aws.ToString(out.NextVersionIdMarker),
		IsTruncated:         aws.ToBool(out.IsTruncated),
	}
	for _, v := range out.Versions {
		var lastMod string
		if v.LastModified != nil {
			lastMod = v.LastModified.UTC().Format("2006-01-02T15:04:05Z")
		}
		result.Versions = append(result.Versions, ObjectVersionSummary{
			Key: aws.ToString(v.Key), VersionID: aws.ToString(v.VersionId),
			IsLatest: aws.ToBool(v.IsLatest), Size: aws.ToInt64(v.Size), LastModified: lastMod,
		})
	}
	for _, d := range out.DeleteMarkers {
		var lastMod string
		if d.LastModified != nil {
			lastMod = d.LastModified.UTC().Format("2006-01-02T15:04:05Z")
		}
		result.Versions = append(result.Versions, ObjectVersionSummary{
			Key: aws.ToString(d.Key), VersionID: aws.ToString(d.VersionId),
			IsLatest: aws.ToBool(d.IsLatest), IsDeleteMark: true, LastModified: lastMod,
		})
	}
	return result, nil
}

// ObjectMeta is the metadata returned by head_object/get_object/put_object.
type ObjectMeta struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified string
	StorageClass string
	VersionID    string
}

func (c *Client) HeadObject(ctx context.Context, bucket, key string) (*ObjectMeta, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "head_object", bucket, key)
	defer span.End()

	out, err := c.sdk.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("head_object", bucket, key, err)
	}

	var lastMod string
	if out.LastModified != nil {
		lastMod = out.LastModified.UTC().Format("2006-01-02T15:04:05Z")
	}
	return &ObjectMeta{
		Key: key, Size: aws.ToInt64(out.ContentLength), ETag: aws.ToString(out.ETag),
		ContentType: aws.ToString(out.ContentType), LastModified: lastMod,
		StorageClass: string(out.StorageClass), VersionID: aws.ToString(out.VersionId),
	}, nil
}

// GetObject reads an object's entire body into memory. Callers transferring
// large objects should use GetObjectStream instead.
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, *ObjectMeta, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_object", bucket, key)
	defer span.End()

	out, err := c.sdk.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, nil, wrap("get_object", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, nil, wrap("get_object", bucket, key, err)
	}

	var lastMod string
	if out.LastModified != nil {
		lastMod = out.LastModified.UTC().Format("2006-01-02T15:04:05Z")
	}
	meta := &ObjectMeta{
		Key: key, Size: int64(len(data)), ETag: aws.ToString(out.ETag),
		ContentType: aws.ToString(out.ContentType), LastModified: lastMod,
		StorageClass: string(out.StorageClass), VersionID: aws.ToString(out.VersionId),
	}
	return data, meta, nil
}

// GetObjectStream opens a streaming read of an object, optionally bounded
// by a byte range (rangeEnd <= 0 means "to the end"). pkg/transfer drives
// this in fixed-size chunks.
func (c *Client) GetObjectStream(ctx context.Context, bucket, key string, rangeStart, rangeEnd int64) (Stream, *ObjectMeta, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_object_stream", bucket, key)
	defer span.End()

	req := &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
	if rangeStart > 0 || rangeEnd > 0 {
		if rangeEnd > 0 {
			req.Range = aws.String(fmt.Sprintf("bytes=%d-%d", rangeStart, rangeEnd))
		} else {
			req.Range = aws.String(fmt.Sprintf("bytes=%d-", rangeStart))
		}
	}

	out, err := c.sdk.GetObject(ctx, req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, nil, wrap("get_object_stream", bucket, key, err)
	}

	var lastMod string
	if out.LastModified != nil {
		lastMod = out.LastModified.UTC().Format("2006-01-02T15:04:05Z")
	}
	meta := &ObjectMeta{
		Key: key, Size: aws.ToInt64(out.ContentLength), ETag: aws.ToString(out.ETag),
		ContentType: aws.ToString(out.ContentType), LastModified: lastMod,
		StorageClass: string(out.StorageClass), VersionID: aws.ToString(out.VersionId),
	}
	return out.Body, meta, nil
}

// PutObjectInput mirrors put_object's parameters.
type PutObjectInput struct {
	Bucket      string
	Key         string
	Body        []byte
	ContentType string
}

func (c *Client) PutObject(ctx context.Context, in PutObjectInput) (*ObjectMeta, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "put_object", in.Bucket, in.Key, telemetry.Bytes(int64(len(in.Body))))
	defer span.End()

	req := &s3.PutObjectInput{
		Bucket: aws.String(in.Bucket),
		Key:    aws.String(in.Key),
		Body:   bytes.NewReader(in.Body),
	}
	if in.ContentType != "" {
		req.ContentType = aws.String(in.ContentType)
	}

	out, err := c.sdk.PutObject(ctx, req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("put_object", in.Bucket, in.Key, err)
	}
	return &ObjectMeta{
		Key: in.Key, Size: int64(len(in.Body)), ETag: aws.ToString(out.ETag), VersionID: aws.ToString(out.VersionId),
	}, nil
}

// CopyObjectInput mirrors copy_object's parameters. ReplaceMetadata selects
// MetadataDirective=REPLACE (used by the metadata-update command to rewrite
// ContentType on a self-copy) instead of the default COPY directive.
type CopyObjectInput struct {
	SrcBucket, SrcKey string
	DstBucket, DstKey string
	ContentType       string
	ReplaceMetadata   bool
}

func (c *Client) CopyObject(ctx context.Context, in CopyObjectInput) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "copy_object", in.DstBucket, in.DstKey)
	defer span.End()

	source := in.SrcBucket + "/" + in.SrcKey
	req := &s3.CopyObjectInput{
		Bucket:     aws.String(in.DstBucket),
		Key:        aws.String(in.DstKey),
		CopySource: aws.String(source),
	}
	if in.ReplaceMetadata {
		req.MetadataDirective = types.MetadataDirectiveReplace
		if in.ContentType != "" {
			req.ContentType = aws.String(in.ContentType)
		}
	}
	_, err := c.sdk.CopyObject(ctx, req)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("copy_object", in.DstBucket, in.DstKey, err)
	}
	return nil
}

func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "delete_object", bucket, key)
	defer span.End()

	_, err := c.sdk.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("delete_object", bucket, key, err)
	}
	return nil
}

func (c *Client) DeleteObjectVersion(ctx context.Context, bucket, key, versionID string) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "delete_object_version", bucket, key)
	defer span.End()

	_, err := c.sdk.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket), Key: aws.String(key), VersionId: aws.String(versionID),
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("delete_object_version", bucket, key, err)
	}
	return nil
}

// DeleteObjectsResult is the outcome of a batch delete_objects call.
type DeleteObjectsResult struct {
	Deleted []string
	Errors  map[string]string // key -> error message
}

// DeleteObjects deletes up to 1000 keys in a single request.
// Callers with more keys must chunk them.
func (c *Client) DeleteObjects(ctx context.Context, bucket string, keys []string) (*DeleteObjectsResult, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "delete_objects", bucket, "")
	defer span.End()

	if len(keys) > 1000 {
		return nil, wrap("delete_objects", bucket, "", fmt.Errorf("batch of %d exceeds max of 1000", len(keys)))
	}

	objs := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objs[i] = types.ObjectIdentifier{Key: aws.String(k)}
	}

	out, err := c.sdk.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: objs},
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("delete_objects", bucket, "", err)
	}

	result := &DeleteObjectsResult{Errors: make(map[string]string)}
	for _, d := range out.Deleted {
		result.Deleted = append(result.Deleted, aws.ToString(d.Key))
	}
	for _, e := range out.Errors {
		result.Errors[aws.ToString(e.Key)] = aws.ToString(e.Message)
	}
	return result, nil
}
