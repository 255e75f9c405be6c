// Bucket-lifecycle and bucket-configuration commands.
package facade

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AccessDevops/S3Explorer/internal/telemetry"
	"github.com/AccessDevops/S3Explorer/pkg/events"
	"github.com/AccessDevops/S3Explorer/pkg/gateway"
	"github.com/AccessDevops/S3Explorer/pkg/validate"
)

// CreateBucket creates bucket under profileID's credentials.
func (f *Facade) CreateBucket(ctx context.Context, profileID, bucket string) error {
	if err := validate.BucketName(bucket); err != nil {
		return err
	}
	ctx, span := telemetry.StartFacadeSpan(ctx, "create_bucket", telemetry.Profile(profileID), telemetry.Bucket(bucket))
	defer span.End()
	start := time.Now()

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}

	err = conn.gw.CreateBucket(ctx, bucket)
	f.recordMetric(events.NewS3RequestMetric(uuid.NewString(), "CreateBucket", events.CategoryPut,
		profileID, p.Name, bucket, "", time.Since(start), 0, 1, err == nil, categoryOf(err), messageOf(err)))
	return err
}

// DeleteBucket deletes bucket, mapping the aws BucketNotEmpty /
// AccessDenied / NoSuchBucket codes through the errs.Category taxonomy
//.
func (f *Facade) DeleteBucket(ctx context.Context, profileID, bucket string) error {
	if err := validate.BucketName(bucket); err != nil {
		return err
	}
	ctx, span := telemetry.StartFacadeSpan(ctx, "delete_bucket", telemetry.Profile(profileID), telemetry.Bucket(bucket))
	defer span.End()
	start := time.Now()

	p, err := f.lookupProfile(profileID)
	if err != nil {
		return err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return err
	}

	err = conn.gw.DeleteBucket(ctx, bucket)
	f.recordMetric(events.NewS3RequestMetric(uuid.NewString(), "DeleteBucket", events.CategoryDelete,
		profileID, p.Name, bucket, "", time.Since(start), 0, 1, err == nil, categoryOf(err), messageOf(err)))
	if err != nil {
		return err
	}
	return conn.handle.ClearBucketIndex(bucket)
}

// CanDeleteBucket reports whether bucket appears empty, consulting the
// local index when it is complete and falling back to a single
// list_objects_v2 call otherwise.
func (f *Facade) CanDeleteBucket(ctx context.Context, profileID, bucket string) (bool, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return false, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return false, err
	}

	if complete, _ := conn.handle.IsPrefixComplete(bucket, ""); complete {
		stats, err := conn.handle.CalculateBucketStats(bucket)
		if err != nil {
			return false, err
		}
		return stats.Count == 0, nil
	}

	page, err := conn.gw.ListObjectsV2(ctx, gateway.ListObjectsInput{Bucket: bucket, MaxKeys: 1})
	if err != nil {
		return false, err
	}
	return len(page.Objects) == 0, nil
}

// GetBucketACL returns bucket's ACL.
func (f *Facade) GetBucketACL(ctx context.Context, profileID, bucket string) (*gateway.BucketACL, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return conn.gw.GetBucketACL(ctx, bucket)
}

// BucketConfiguration bundles every bucket-level configuration facet
// fetched in parallel by GetBucketConfiguration.
type BucketConfiguration struct {
	ACL         *gateway.BucketACL
	Policy      string
	CORS        []gateway.CORSRule
	Lifecycle   []gateway.LifecycleRule
	Versioning  gateway.VersioningStatus
	Encryption  *gateway.EncryptionConfig
	Errors      map[string]string // facet name -> error, for facets that failed independently
}

// GetBucketConfiguration fetches ACL, policy, CORS, lifecycle, versioning,
// and encryption concurrently. A facet failing (e.g. no policy attached)
// is recorded in Errors rather than failing the whole call, since these
// facets are independent and commonly partially absent.
func (f *Facade) GetBucketConfiguration(ctx context.Context, profileID, bucket string) (*BucketConfiguration, error) {
	p, err := f.lookupProfile(profileID)
	if err != nil {
		return nil, err
	}
	conn, err := f.connectionFor(ctx, p)
	if err != nil {
		return nil, err
	}

	type result struct {
		name string
		err  error
	}
	cfg := &BucketConfiguration{Errors: make(map[string]string)}
	results := make(chan result, 6)

	go func() {
		acl, err := conn.gw.GetBucketACL(ctx, bucket)
		if err == nil {
			cfg.ACL = acl
		}
		results <- result{"acl", err}
	}()
	go func() {
		policy, err := conn.gw.GetBucketPolicy(ctx, bucket)
		if err == nil {
			cfg.Policy = policy
		}
		results <- result{"policy", err}
	}()
	go func() {
		cors, err := conn.gw.GetBucketCORS(ctx, bucket)
		if err == nil {
			cfg.CORS = cors
		}
		results <- result{"cors", err}
	}()
	go func() {
		lifecycle, err := conn.gw.GetBucketLifecycle(ctx, bucket)
		if err == nil {
			cfg.Lifecycle = lifecycle
		}
		results <- result{"lifecycle", err}
	}()
	go func() {
		v, err := conn.gw.GetBucketVersioning(ctx, bucket)
		if err == nil {
			cfg.Versioning = v
		}
		results <- result{"versioning", err}
	}()
	go func() {
		enc, err := conn.gw.GetBucketEncryption(ctx, bucket)
		if err == nil {
			cfg.Encryption = enc
		}
		results <- result{"encryption", err}
	}()

	for i := 0; i < 6; i++ {
		r := <-results
		if r.err != nil {
			cfg.Errors[r.name] = r.err.Error()
		}
	}
	return cfg, nil
}

// TestConnection validates the given credentials against their endpoint
// without requiring a saved profile.
func (f *Facade) TestConnection(ctx context.Context, p ProfileCredentials) (*gateway.ConnectionTestResult, error) {
	gw, err := gateway.NewClient(ctx, gateway.Config{
		Endpoint: p.Endpoint, Region: p.Region, AccessKey: p.AccessKey,
		SecretKey: p.SecretKey, SessionToken: p.SessionToken, PathStyle: p.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	return gw.TestConnection(ctx)
}

// ProfileCredentials is the subset of profile.Profile TestConnection needs,
// so callers can probe an endpoint before the profile is ever saved.
type ProfileCredentials struct {
	Endpoint, Region, AccessKey, SecretKey, SessionToken string
	PathStyle                                            bool
}
