package gateway

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/AccessDevops/S3Explorer/internal/telemetry"
)

func (c *Client) CreateMultipartUpload(ctx context.Context, bucket, key string) (string, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "create_multipart_upload", bucket, key)
	defer span.End()

	out, err := c.sdk.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket), Key: aws.String(key),
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return "", wrap("create_multipart_upload", bucket, key, err)
	}
	return aws.ToString(out.UploadId), nil
}

// UploadPartInput mirrors upload_part's parameters. Part numbers must be
// unique within 1-10000.
type UploadPartInput struct {
	Bucket, Key string
	UploadID    string
	PartNumber  int32
	Body        []byte
}

// UploadPart uploads one part, returning its ETag for use in
// CompleteMultipartInput.Parts.
func (c *Client) UploadPart(ctx context.Context, in UploadPartInput) (string, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "upload_part", in.Bucket, in.Key, telemetry.PartNumber(int(in.PartNumber)))
	defer span.End()

	out, err := c.sdk.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(in.Bucket),
		Key:        aws.String(in.Key),
		UploadId:   aws.String(in.UploadID),
		PartNumber: aws.Int32(in.PartNumber),
		Body:       bytes.NewReader(in.Body),
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return "", wrap("upload_part", in.Bucket, in.Key, err)
	}
	return aws.ToString(out.ETag), nil
}

// CompletedPart is one entry of CompleteMultipartInput.Parts.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// CompleteMultipartInput mirrors complete_multipart_upload's parameters.
type CompleteMultipartInput struct {
	Bucket, Key string
	UploadID    string
	Parts       []CompletedPart
}

func (c *Client) CompleteMultipartUpload(ctx context.Context, in CompleteMultipartInput) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "complete_multipart_upload", in.Bucket, in.Key)
	defer span.End()

	parts := make([]types.CompletedPart, len(in.Parts))
	for i, p := range in.Parts {
		parts[i] = types.CompletedPart{PartNumber: aws.Int32(p.PartNumber), ETag: aws.String(p.ETag)}
	}

	_, err := c.sdk.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(in.Bucket),
		Key:             aws.String(in.Key),
		UploadId:        aws.String(in.UploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("complete_multipart_upload", in.Bucket, in.Key, err)
	}
	return nil
}

func (c *Client) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "abort_multipart_upload", bucket, key)
	defer span.End()

	_, err := c.sdk.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket: aws.String(bucket), Key: aws.String(key), UploadId: aws.String(uploadID),
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("abort_multipart_upload", bucket, key, err)
	}
	return nil
}
