package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Literal bucket-name cases the command surface depends on.
func TestBucketName(t *testing.T) {
	assert.NoError(t, BucketName("my-bucket"))
	assert.NoError(t, BucketName("my.bucket.2024"))

	err := BucketName("192.168.1.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IP address")

	err = BucketName("my..bucket")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consecutive periods")

	assert.Error(t, BucketName("ab"), "too short")
	assert.Error(t, BucketName("MyBucket"), "uppercase")
	assert.Error(t, BucketName("-leading"), "leading hyphen")
	assert.Error(t, BucketName("trailing-"), "trailing hyphen")
	assert.Error(t, BucketName("my.-bucket"), "period-hyphen")
	assert.Error(t, BucketName("xn--punycode"), "reserved prefix")
}

func TestObjectKey(t *testing.T) {
	assert.NoError(t, ObjectKey("a/b/file.txt"))
	assert.Error(t, ObjectKey(""))
	assert.Error(t, ObjectKey("bad\x00key"))
	assert.Error(t, ObjectKey("bad\nkey"))

	long := make([]byte, 1025)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ObjectKey(string(long)))
	assert.NoError(t, ObjectKey(string(long[:1024])))
}

func TestFolderPath(t *testing.T) {
	p, err := FolderPath("/photos/2024")
	require.NoError(t, err)
	assert.Equal(t, "photos/2024/", p)

	p, err = FolderPath("already/")
	require.NoError(t, err)
	assert.Equal(t, "already/", p)

	_, err = FolderPath("")
	assert.Error(t, err)
	_, err = FolderPath("/")
	assert.Error(t, err)
}

func TestPresignExpiry(t *testing.T) {
	assert.NoError(t, PresignExpiry(time.Second))
	assert.NoError(t, PresignExpiry(7*24*time.Hour))
	assert.Error(t, PresignExpiry(500*time.Millisecond))
	assert.Error(t, PresignExpiry(7*24*time.Hour+time.Second))
}

func TestEndpointURL(t *testing.T) {
	warning, err := EndpointURL("https://s3.example.com")
	require.NoError(t, err)
	assert.Empty(t, warning)

	warning, err = EndpointURL("http://localhost:9000")
	require.NoError(t, err)
	assert.Empty(t, warning)

	// plain http off-localhost warns, does not reject
	warning, err = EndpointURL("http://minio.internal:9000")
	require.NoError(t, err)
	assert.NotEmpty(t, warning)

	_, err = EndpointURL("ftp://s3.example.com")
	assert.Error(t, err)
}

func TestValidatorStruct(t *testing.T) {
	type form struct {
		Bucket string `validate:"s3bucket"`
		Key    string `validate:"s3objectkey"`
	}
	v := New()
	assert.NoError(t, v.Struct(form{Bucket: "my-bucket", Key: "a/b.txt"}))
	assert.Error(t, v.Struct(form{Bucket: "NO", Key: "a/b.txt"}))
}
