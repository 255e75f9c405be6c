//go:build integration

package gateway_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AccessDevops/S3Explorer/pkg/gateway"
	"github.com/AccessDevops/S3Explorer/pkg/index"
	"github.com/AccessDevops/S3Explorer/pkg/store"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
)

// minioHelper manages the MinIO container for gateway integration tests.
type minioHelper struct {
	container testcontainers.Container
	endpoint  string
}

// newMinioHelper starts a MinIO container, or connects to an existing one
// when MINIO_ENDPOINT is set.
func newMinioHelper(t *testing.T) *minioHelper {
	t.Helper()
	ctx := context.Background()

	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		return &minioHelper{endpoint: endpoint}
	}

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		},
		Cmd: []string{"server", "/data"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9000/tcp"),
			wait.ForHTTP("/minio/health/live").
				WithPort("9000/tcp").
				WithStartupTimeout(60*time.Second),
		),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	return &minioHelper{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}

func (h *minioHelper) newGateway(t *testing.T) gateway.Gateway {
	t.Helper()
	gw, err := gateway.NewClient(context.Background(), gateway.Config{
		Endpoint:  h.endpoint,
		Region:    "us-east-1",
		AccessKey: minioUser,
		SecretKey: minioPassword,
		PathStyle: true,
	})
	require.NoError(t, err)
	return gw
}

func TestGateway_ObjectLifecycleAgainstMinIO(t *testing.T) {
	helper := newMinioHelper(t)
	gw := helper.newGateway(t)
	ctx := context.Background()

	bucket := fmt.Sprintf("it-lifecycle-%d", time.Now().UnixNano())
	require.NoError(t, gw.CreateBucket(ctx, bucket))
	t.Cleanup(func() { _ = gw.DeleteBucket(context.Background(), bucket) })

	body := []byte("integration payload")
	_, err := gw.PutObject(ctx, gateway.PutObjectInput{Bucket: bucket, Key: "docs/hello.txt", Body: body, ContentType: "text/plain"})
	require.NoError(t, err)

	meta, err := gw.HeadObject(ctx, bucket, "docs/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), meta.Size)

	got, _, err := gw.GetObject(ctx, bucket, "docs/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, body, got)

	page, err := gw.ListObjectsV2(ctx, gateway.ListObjectsInput{Bucket: bucket, Delimiter: "/", MaxKeys: 100})
	require.NoError(t, err)
	var prefixes []string
	for _, o := range page.Objects {
		if o.IsPrefix {
			prefixes = append(prefixes, o.Key)
		}
	}
	assert.Contains(t, prefixes, "docs/")

	require.NoError(t, gw.DeleteObject(ctx, bucket, "docs/hello.txt"))
	_, err = gw.HeadObject(ctx, bucket, "docs/hello.txt")
	assert.Error(t, err)
}

func TestGateway_MultipartLifecycleAgainstMinIO(t *testing.T) {
	helper := newMinioHelper(t)
	gw := helper.newGateway(t)
	ctx := context.Background()

	bucket := fmt.Sprintf("it-multipart-%d", time.Now().UnixNano())
	require.NoError(t, gw.CreateBucket(ctx, bucket))
	t.Cleanup(func() { _ = gw.DeleteBucket(context.Background(), bucket) })

	uploadID, err := gw.CreateMultipartUpload(ctx, bucket, "big.bin")
	require.NoError(t, err)

	// two 5 MiB parts: MinIO enforces S3's non-final-part minimum
	part := bytes.Repeat([]byte{0xAB}, 5<<20)
	var parts []gateway.CompletedPart
	for n := int32(1); n <= 2; n++ {
		etag, err := gw.UploadPart(ctx, gateway.UploadPartInput{
			Bucket: bucket, Key: "big.bin", UploadID: uploadID, PartNumber: n, Body: part,
		})
		require.NoError(t, err)
		parts = append(parts, gateway.CompletedPart{PartNumber: n, ETag: etag})
	}
	require.NoError(t, gw.CompleteMultipartUpload(ctx, gateway.CompleteMultipartInput{
		Bucket: bucket, Key: "big.bin", UploadID: uploadID, Parts: parts,
	}))

	meta, err := gw.HeadObject(ctx, bucket, "big.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(10<<20), meta.Size)

	require.NoError(t, gw.DeleteObject(ctx, bucket, "big.bin"))
}

func TestIndexEngine_InitialIndexAgainstMinIO(t *testing.T) {
	helper := newMinioHelper(t)
	gw := helper.newGateway(t)
	ctx := context.Background()

	bucket := fmt.Sprintf("it-index-%d", time.Now().UnixNano())
	require.NoError(t, gw.CreateBucket(ctx, bucket))
	t.Cleanup(func() { _ = gw.DeleteBucket(context.Background(), bucket) })

	keys := []string{"a/one.txt", "a/two.txt", "b/three.txt", "root.txt"}
	for _, key := range keys {
		_, err := gw.PutObject(ctx, gateway.PutObjectInput{Bucket: bucket, Key: key, Body: []byte(key)})
		require.NoError(t, err)
		t.Cleanup(func() { _ = gw.DeleteObject(context.Background(), bucket, key) })
	}

	st, err := store.Open("it-profile", store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	engine := index.New(gw, st)
	result, err := engine.InitialIndexBucket(ctx, bucket, index.IndexingConfig{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(len(keys)), result.TotalIndexed)
	assert.True(t, result.IsComplete)

	stats, err := st.CalculateBucketStats(bucket)
	require.NoError(t, err)
	assert.Equal(t, int64(len(keys)), stats.Count)
	assert.True(t, stats.IsComplete)

	complete, err := st.IsPrefixComplete(bucket, "a/")
	require.NoError(t, err)
	assert.True(t, complete)
}
