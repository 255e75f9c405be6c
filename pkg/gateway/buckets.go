package gateway

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/AccessDevops/S3Explorer/internal/telemetry"
)

// BucketSummary is one entry of ListBuckets.
type BucketSummary struct {
	Name         string
	CreationDate string
}

// BucketACL is a flattened view of get_bucket_acl.
type BucketACL struct {
	Owner string
	Grants []ACLGrant
}

// ACLGrant is one grant entry within a BucketACL.
type ACLGrant struct {
	Grantee    string
	Permission string
}

// CORSRule is one entry of get_bucket_cors.
type CORSRule struct {
	AllowedMethods []string
	AllowedOrigins []string
	AllowedHeaders []string
	MaxAgeSeconds  int32
}

// LifecycleRule is one entry of get_bucket_lifecycle.
type LifecycleRule struct {
	ID                    string
	Prefix                string
	Status                string
	ExpirationDays        int32
	NoncurrentExpiryDays  int32
}

// VersioningStatus is the result of get_bucket_versioning.
type VersioningStatus string

const (
	VersioningDisabled VersioningStatus = "Disabled"
	VersioningEnabled  VersioningStatus = "Enabled"
	VersioningSuspended VersioningStatus = "Suspended"
)

// EncryptionConfig is the result of get_bucket_encryption.
type EncryptionConfig struct {
	Algorithm string
	KMSKeyID  string
}

func (c *Client) ListBuckets(ctx context.Context) ([]BucketSummary, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "list_buckets", "", "")
	defer span.End()

	out, err := c.sdk.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("list_buckets", "", "", err)
	}

	buckets := make([]BucketSummary, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		var created string
		if b.CreationDate != nil {
			created = b.CreationDate.UTC().Format("2006-01-02T15:04:05Z")
		}
		buckets = append(buckets, BucketSummary{Name: aws.ToString(b.Name), CreationDate: created})
	}
	return buckets, nil
}

// CreateBucket creates bucket, attaching a location constraint iff region
// is not us-east-1.
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "create_bucket", bucket, "")
	defer span.End()

	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if c.region != "" && c.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}
	_, err := c.sdk.CreateBucket(ctx, in)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("create_bucket", bucket, "", err)
	}
	return nil
}

func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "delete_bucket", bucket, "")
	defer span.End()

	_, err := c.sdk.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("delete_bucket", bucket, "", err)
	}
	return nil
}

func (c *Client) HeadBucket(ctx context.Context, bucket string) error {
	ctx, span := telemetry.StartGatewaySpan(ctx, "head_bucket", bucket, "")
	defer span.End()

	_, err := c.sdk.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return wrap("head_bucket", bucket, "", err)
	}
	return nil
}

func (c *Client) GetBucketACL(ctx context.Context, bucket string) (*BucketACL, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_bucket_acl", bucket, "")
	defer span.End()

	out, err := c.sdk.GetBucketAcl(ctx, &s3.GetBucketAclInput{Bucket: aws.String(bucket)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("get_bucket_acl", bucket, "", err)
	}

	acl := &BucketACL{}
	if out.Owner != nil {
		acl.Owner = aws.ToString(out.Owner.DisplayName)
	}
	for _, g := range out.Grants {
		grant := ACLGrant{Permission: string(g.Permission)}
		if g.Grantee != nil {
			if g.Grantee.DisplayName != nil {
				grant.Grantee = aws.ToString(g.Grantee.DisplayName)
			} else {
				grant.Grantee = aws.ToString(g.Grantee.URI)
			}
		}
		acl.Grants = append(acl.Grants, grant)
	}
	return acl, nil
}

func (c *Client) GetBucketPolicy(ctx context.Context, bucket string) (string, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_bucket_policy", bucket, "")
	defer span.End()

	out, err := c.sdk.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{Bucket: aws.String(bucket)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return "", wrap("get_bucket_policy", bucket, "", err)
	}
	return aws.ToString(out.Policy), nil
}

func (c *Client) GetBucketCORS(ctx context.Context, bucket string) ([]CORSRule, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_bucket_cors", bucket, "")
	defer span.End()

	out, err := c.sdk.GetBucketCors(ctx, &s3.GetBucketCorsInput{Bucket: aws.String(bucket)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("get_bucket_cors", bucket, "", err)
	}

	rules := make([]CORSRule, 0, len(out.CORSRules))
	for _, r := range out.CORSRules {
		rules = append(rules, CORSRule{
			AllowedMethods: r.AllowedMethods,
			AllowedOrigins: r.AllowedOrigins,
			AllowedHeaders: r.AllowedHeaders,
			MaxAgeSeconds:  aws.ToInt32(r.MaxAgeSeconds),
		})
	}
	return rules, nil
}

func (c *Client) GetBucketLifecycle(ctx context.Context, bucket string) ([]LifecycleRule, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_bucket_lifecycle", bucket, "")
	defer span.End()

	out, err := c.sdk.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{Bucket: aws.String(bucket)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("get_bucket_lifecycle", bucket, "", err)
	}

	rules := make([]LifecycleRule, 0, len(out.Rules))
	for _, r := range out.Rules {
		lr := LifecycleRule{ID: aws.ToString(r.ID), Status: string(r.Status)}
		if r.Filter != nil && r.Filter.Prefix != nil {
			lr.Prefix = aws.ToString(r.Filter.Prefix)
		}
		if r.Expiration != nil {
			lr.ExpirationDays = aws.ToInt32(r.Expiration.Days)
		}
		if r.NoncurrentVersionExpiration != nil {
			lr.NoncurrentExpiryDays = aws.ToInt32(r.NoncurrentVersionExpiration.NoncurrentDays)
		}
		rules = append(rules, lr)
	}
	return rules, nil
}

func (c *Client) GetBucketVersioning(ctx context.Context, bucket string) (VersioningStatus, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_bucket_versioning", bucket, "")
	defer span.End()

	out, err := c.sdk.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(bucket)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return "", wrap("get_bucket_versioning", bucket, "", err)
	}
	if out.Status == "" {
		return VersioningDisabled, nil
	}
	return VersioningStatus(out.Status), nil
}

func (c *Client) GetBucketEncryption(ctx context.Context, bucket string) (*EncryptionConfig, error) {
	ctx, span := telemetry.StartGatewaySpan(ctx, "get_bucket_encryption", bucket, "")
	defer span.End()

	out, err := c.sdk.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{Bucket: aws.String(bucket)})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, wrap("get_bucket_encryption", bucket, "", err)
	}
	if out.ServerSideEncryptionConfiguration == nil || len(out.ServerSideEncryptionConfiguration.Rules) == 0 {
		return &EncryptionConfig{}, nil
	}
	rule := out.ServerSideEncryptionConfiguration.Rules[0]
	cfg := &EncryptionConfig{}
	if rule.ApplyServerSideEncryptionByDefault != nil {
		cfg.Algorithm = string(rule.ApplyServerSideEncryptionByDefault.SSEAlgorithm)
		cfg.KMSKeyID = aws.ToString(rule.ApplyServerSideEncryptionByDefault.KMSMasterKeyID)
	}
	return cfg, nil
}
