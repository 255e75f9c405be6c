// Package gateway implements S3Gateway: a narrow capability
// surface over the S3 protocol, backed by aws-sdk-go-v2. The core never
// talks to aws-sdk-go-v2 types directly outside this package.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/AccessDevops/S3Explorer/internal/telemetry"
	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

// Client-level timeouts.
const (
	ConnectTimeout      = 10 * time.Second
	ReadTimeout         = 300 * time.Second
	OperationTimeout    = 600 * time.Second
	TestConnectTimeout  = 30 * time.Second
)

// Config describes one S3 endpoint and the credentials to reach it. It
// mirrors the fields of a decrypted profile.Profile without importing
// pkg/profile, keeping gateway usable independent of the profile store.
type Config struct {
	Endpoint     string // optional; empty means real AWS
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	PathStyle    bool
}

// Gateway is the narrow S3 capability surface consumed by the core
//. Implementations are pluggable; Client is the only one.
type Gateway interface {
	ListBuckets(ctx context.Context) ([]BucketSummary, error)
	CreateBucket(ctx context.Context, bucket string) error
	DeleteBucket(ctx context.Context, bucket string) error
	HeadBucket(ctx context.Context, bucket string) error
	GetBucketACL(ctx context.Context, bucket string) (*BucketACL, error)
	GetBucketPolicy(ctx context.Context, bucket string) (string, error)
	GetBucketCORS(ctx context.Context, bucket string) ([]CORSRule, error)
	GetBucketLifecycle(ctx context.Context, bucket string) ([]LifecycleRule, error)
	GetBucketVersioning(ctx context.Context, bucket string) (VersioningStatus, error)
	GetBucketEncryption(ctx context.Context, bucket string) (*EncryptionConfig, error)

	ListObjectsV2(ctx context.Context, in ListObjectsInput) (*ListObjectsOutput, error)
	ListObjectVersions(ctx context.Context, in ListVersionsInput) (*ListVersionsOutput, error)
	HeadObject(ctx context.Context, bucket, key string) (*ObjectMeta, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, *ObjectMeta, error)
	GetObjectStream(ctx context.Context, bucket, key string, rangeStart, rangeEnd int64) (Stream, *ObjectMeta, error)
	PutObject(ctx context.Context, in PutObjectInput) (*ObjectMeta, error)
	CopyObject(ctx context.Context, in CopyObjectInput) error
	DeleteObject(ctx context.Context, bucket, key string) error
	DeleteObjectVersion(ctx context.Context, bucket, key, versionID string) error
	DeleteObjects(ctx context.Context, bucket string, keys []string) (*DeleteObjectsResult, error)

	CreateMultipartUpload(ctx context.Context, bucket, key string) (string, error)
	UploadPart(ctx context.Context, in UploadPartInput) (string, error)
	CompleteMultipartUpload(ctx context.Context, in CompleteMultipartInput) error
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error

	GetObjectTagging(ctx context.Context, bucket, key string) (map[string]string, error)
	PutObjectTagging(ctx context.Context, bucket, key string, tags map[string]string) error
	DeleteObjectTagging(ctx context.Context, bucket, key string) error

	PutObjectRetention(ctx context.Context, bucket, key string, in RetentionInput) error
	PutObjectLegalHold(ctx context.Context, bucket, key string, on bool) error
	GetObjectRetention(ctx context.Context, bucket, key string) (*RetentionInput, error)
	GetObjectLegalHold(ctx context.Context, bucket, key string) (bool, error)

	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	PresignPutObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)

	TestConnection(ctx context.Context) (*ConnectionTestResult, error)
}

// Stream is a closeable byte stream, returned by GetObjectStream for
// chunked reading by pkg/transfer.
type Stream interface {
	Read(p []byte) (int, error)
	Close() error
}

// Client is the aws-sdk-go-v2-backed Gateway implementation.
type Client struct {
	sdk       *s3.Client
	presigner *s3.PresignClient
	region    string
	pathStyle bool
	endpoint  string
}

// NewClient builds a Client from cfg: static credentials, optional custom
// endpoint, and path-style addressing toggled per profile.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, cfg.SessionToken,
		)),
	)
	if err != nil {
		return nil, errs.Wrap(errs.S3Error, "load aws config", err)
	}

	sdkClient := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &Client{
		sdk:       sdkClient,
		presigner: s3.NewPresignClient(sdkClient),
		region:    region,
		pathStyle: cfg.PathStyle,
		endpoint:  cfg.Endpoint,
	}, nil
}

// ConnectionTestResult is the outcome of TestConnection.
type ConnectionTestResult struct {
	Success          bool
	SuggestPathStyle bool
	Error            string
}

// TestConnection performs list_buckets with a 30s overall timeout. On
// failure when path_style is off and the endpoint is custom, it retries
// once with path_style on; success there is reported as a soft-success
// hint (suggest_path_style=true, success=false) rather than a hard failure.
func (c *Client) TestConnection(ctx context.Context) (*ConnectionTestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, TestConnectTimeout)
	defer cancel()

	ctx, span := telemetry.StartGatewaySpan(ctx, "test_connection", "", "")
	defer span.End()

	_, err := c.sdk.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err == nil {
		return &ConnectionTestResult{Success: true}, nil
	}

	if c.pathStyle || c.endpoint == "" {
		telemetry.RecordError(ctx, err)
		return &ConnectionTestResult{Success: false, Error: err.Error()}, nil
	}

	retryClient := s3.New(c.sdk.Options(), func(o *s3.Options) {
		o.UsePathStyle = true
	})
	if _, retryErr := retryClient.ListBuckets(ctx, &s3.ListBucketsInput{}); retryErr == nil {
		return &ConnectionTestResult{Success: false, SuggestPathStyle: true}, nil
	}

	telemetry.RecordError(ctx, err)
	return &ConnectionTestResult{Success: false, Error: err.Error()}, nil
}

func wrap(op string, bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	e := errs.S3(categorize(err), fmt.Sprintf("s3 %s", op), err)
	if key != "" {
		return e.WithPath(bucket + "/" + key)
	}
	return e.WithPath(bucket)
}
