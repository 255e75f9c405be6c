package events

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewS3RequestMetric_ClampsLongFields(t *testing.T) {
	longKey := strings.Repeat("k", 300)
	longErr := strings.Repeat("e", 600)

	m := NewS3RequestMetric("id", "GetObject", CategoryGet, "p", "name", "bkt", longKey,
		10*time.Millisecond, 0, 0, false, "NetworkError", longErr)

	assert.Len(t, m.ObjectKey, 200)
	assert.True(t, strings.HasSuffix(m.ObjectKey, "..."))
	assert.Len(t, m.ErrorMessage, 500)
	assert.True(t, strings.HasSuffix(m.ErrorMessage, "..."))
	assert.Equal(t, int64(10), m.DurationMs)
	assert.NotZero(t, m.TimestampMs)
}

func TestNewS3RequestMetric_ShortFieldsUntouched(t *testing.T) {
	m := NewS3RequestMetric("id", "PutObject", CategoryPut, "p", "name", "bkt", "short/key",
		time.Millisecond, 5, 1, true, "", "")
	assert.Equal(t, "short/key", m.ObjectKey)
	assert.Empty(t, m.ErrorMessage)
}

func TestMultiEmitter_FansOutInOrder(t *testing.T) {
	var order []string
	a := &namedEmitter{name: "a", order: &order}
	b := &namedEmitter{name: "b", order: &order}

	m := MultiEmitter{a, b}
	m.EmitUploadProgress(UploadProgress{})
	m.EmitMetric(S3RequestMetric{})

	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
}

type namedEmitter struct {
	name  string
	order *[]string
}

func (n *namedEmitter) EmitUploadProgress(UploadProgress)     { *n.order = append(*n.order, n.name) }
func (n *namedEmitter) EmitDownloadProgress(DownloadProgress) { *n.order = append(*n.order, n.name) }
func (n *namedEmitter) EmitIndexProgress(IndexProgress)       { *n.order = append(*n.order, n.name) }
func (n *namedEmitter) EmitMetric(S3RequestMetric)            { *n.order = append(*n.order, n.name) }
