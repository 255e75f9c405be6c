package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/AccessDevops/S3Explorer/internal/telemetry"
)

func (c *Client) GetObjectTagging(ctx context.Context, bucket, key string) (map[string]string, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_object_tagging", bucket, key)
	defer span.End()

	out, err := c.sdk.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("get_object_tagging", bucket, key, err)
	}

	tags := make(map[string]string, len(out.TagSet))
	for _, t := range out.TagSet {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return tags, nil
}

func (c *Client) PutObjectTagging(ctx context.Context, bucket, key string, tags map[string]string) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "put_object_tagging", bucket, key)
	defer span.End()

	tagSet := make([]types.Tag, 0, len(tags))
	for k, v := range tags {
		tagSet = append(tagSet, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	_, err := c.sdk.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: aws.String(bucket), Key: aws.String(key),
		Tagging: &types.Tagging{TagSet: tagSet},
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("put_object_tagging", bucket, key, err)
	}
	return nil
}

func (c *Client) DeleteObjectTagging(ctx context.Context, bucket, key string) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "delete_object_tagging", bucket, key)
	defer span.End()

	_, err := c.sdk.DeleteObjectTagging(ctx, &s3.DeleteObjectTaggingInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("delete_object_tagging", bucket, key, err)
	}
	return nil
}

// RetentionInput mirrors put_object_retention's parameters.
type RetentionInput struct {
	Mode            string // "GOVERNANCE" or "COMPLIANCE"
	RetainUntilDate time.Time
}

func (c *Client) PutObjectRetention(ctx context.Context, bucket, key string, in RetentionInput) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "put_object_retention", bucket, key)
	defer span.End()

	_, err := c.sdk.PutObjectRetention(ctx, &s3.PutObjectRetentionInput{
		Bucket: aws.String(bucket), Key: aws.String(key),
		Retention: &types.ObjectLockRetention{
			Mode:            types.ObjectLockRetentionMode(in.Mode),
			RetainUntilDate: aws.Time(in.RetainUntilDate),
		},
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("put_object_retention", bucket, key, err)
	}
	return nil
}

func (c *Client) PutObjectLegalHold(ctx context.Context, bucket, key string, on bool) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "put_object_legal_hold", bucket, key)
	defer span.End()

	status := types.ObjectLockLegalHoldStatusOff
	if on {
		status = types.ObjectLockLegalHoldStatusOn
	}

	_, err := c.sdk.PutObjectLegalHold(ctx, &s3.PutObjectLegalHoldInput{
		Bucket: aws.String(bucket), Key: aws.String(key),
		LegalHold: &types.ObjectLockLegalHold{Status: status},
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("put_object_legal_hold", bucket, key, err)
	}
	return nil
}

// ObjectLockStatus reports the object's retention and legal-hold state.
// An "object lock not configured" response from either
// call (ObjectLockConfigurationNotFoundError, InvalidRequest, AccessDenied)
// is interpreted as "no lock" rather than surfaced as an error.
type ObjectLockStatus struct {
	RetentionMode   string
	RetainUntilDate time.Time
	LegalHoldOn     bool
}

func (c *Client) GetObjectRetention(ctx context.Context, bucket, key string) (*RetentionInput, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_object_retention", bucket, key)
	defer span.End()

	out, err := c.sdk.GetObjectRetention(ctx, &s3.GetObjectRetentionInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		if isLockNotConfigured(err) {
			return nil, nil
		}
		telemetry.RecordError(ctx, err)
		return nil, wrap("get_object_retention", bucket, key, err)
	}
	if out.Retention == nil {
		return nil, nil
	}
	return &RetentionInput{
		Mode:            string(out.Retention.Mode),
		RetainUntilDate: aws.ToTime(out.Retention.RetainUntilDate),
	}, nil
}

func (c *Client) GetObjectLegalHold(ctx context.Context, bucket, key string) (bool, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_object_legal_hold", bucket, key)
	defer span.End()

	out, err := c.sdk.GetObjectLegalHold(ctx, &s3.GetObjectLegalHoldInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		if isLockNotConfigured(err) {
			return false, nil
		}
		telemetry.RecordError(ctx, err)
		return false, wrap("get_object_legal_hold", bucket, key, err)
	}
	if out.LegalHold == nil {
		return false, nil
	}
	return out.LegalHold.Status == types.ObjectLockLegalHoldStatusOn, nil
}

func isLockNotConfigured(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ObjectLockConfigurationNotFoundError", "InvalidRequest", "AccessDenied":
		return true
	default:
		return false
	}
}

func (c *Client) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "presign_get_object", bucket, key)
	defer span.End()

	out, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket), Key: aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		telemetry.RecordError(ctx, err)
		return "", wrap("presign_get_object", bucket, key, err)
	}
	return out.URL, nil
}

func (c *Client) PresignPutObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "presign_put_object", bucket, key)
	defer span.End()

	out, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket), Key: aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		telemetry.RecordError(ctx, err)
		return "", wrap("presign_put_object", bucket, key, err)
	}
	return out.URL, nil
}
