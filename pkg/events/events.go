// Package events defines the payload types CommandFacade emits to the UI
// layer: transfer progress, indexing
// progress, and metrics events. The facade's Emitter delivers these; this
// package only shapes the data.
package events

import "time"

// TransferStatus is the enumerated progress state of an upload or download
//.
type TransferStatus string

const (
	StatusPending     TransferStatus = "Pending"
	StatusStarting    TransferStatus = "Starting"
	StatusUploading   TransferStatus = "Uploading"
	StatusDownloading TransferStatus = "Downloading"
	StatusCompleted   TransferStatus = "Completed"
	StatusFailed      TransferStatus = "Failed"
	StatusCancelled   TransferStatus = "Cancelled"
)

// UploadProgress is the upload:progress event payload.
type UploadProgress struct {
	TransferID     string         `json:"transfer_id"`
	ProfileID      string         `json:"profile_id"`
	Bucket         string         `json:"bucket"`
	Key            string         `json:"key"`
	UploadedBytes  int64          `json:"uploaded_bytes"`
	TotalBytes     int64          `json:"total_bytes"`
	UploadedParts  int            `json:"uploaded_parts"`
	TotalParts     int            `json:"total_parts"`
	Percentage     float64        `json:"percentage"`
	BytesPerSecond float64        `json:"bytes_per_second,omitempty"`
	Status         TransferStatus `json:"status"`
	Error          string         `json:"error,omitempty"`
}

// DownloadProgress is the download:progress event payload.
type DownloadProgress struct {
	TransferID      string         `json:"transfer_id"`
	ProfileID       string         `json:"profile_id"`
	Bucket          string         `json:"bucket"`
	Key             string         `json:"key"`
	DownloadedBytes int64          `json:"downloaded_bytes"`
	TotalBytes      int64          `json:"total_bytes"`
	Percentage      float64        `json:"percentage"`
	BytesPerSecond  float64        `json:"bytes_per_second,omitempty"`
	Status          TransferStatus `json:"status"`
	Error           string         `json:"error,omitempty"`
}

// IndexStatus is the enumerated state of an indexing run.
type IndexStatus string

const (
	IndexStarting  IndexStatus = "Starting"
	IndexIndexing  IndexStatus = "Indexing"
	IndexCompleted IndexStatus = "Completed"
	IndexPartial   IndexStatus = "Partial"
	IndexCancelled IndexStatus = "Cancelled"
	IndexFailed    IndexStatus = "Failed"
)

// IndexProgress is the index:progress event payload.
type IndexProgress struct {
	ProfileID      string      `json:"profile_id"`
	Bucket         string      `json:"bucket"`
	ObjectsIndexed int64       `json:"objects_indexed"`
	RequestsMade   int         `json:"requests_made"`
	MaxRequests    int         `json:"max_requests"`
	IsComplete     bool        `json:"is_complete"`
	Status         IndexStatus `json:"status"`
	Error          string      `json:"error,omitempty"`
}

// RequestCategory enumerates the category of an S3 request metric
//.
type RequestCategory string

const (
	CategoryGet    RequestCategory = "GET"
	CategoryPut    RequestCategory = "PUT"
	CategoryList   RequestCategory = "LIST"
	CategoryDelete RequestCategory = "DELETE"
	CategoryLocal  RequestCategory = "LOCAL"
)

// maxObjectKeyLen / maxErrorMessageLen bound the event payload's
// object_key and error_message fields.
const (
	maxObjectKeyLen    = 200
	maxErrorMessageLen = 500
)

// S3RequestMetric is the metrics:s3-request event payload.
type S3RequestMetric struct {
	ID                string          `json:"id"`
	TimestampMs        int64           `json:"timestamp_ms"`
	Operation          string          `json:"operation"`
	Category           RequestCategory `json:"category"`
	ProfileID          string          `json:"profile_id,omitempty"`
	ProfileName        string          `json:"profile_name,omitempty"`
	Bucket             string          `json:"bucket,omitempty"`
	ObjectKey          string          `json:"object_key,omitempty"`
	DurationMs         int64           `json:"duration_ms"`
	BytesTransferred   int64           `json:"bytes_transferred,omitempty"`
	ObjectsAffected    int             `json:"objects_affected,omitempty"`
	Success            bool            `json:"success"`
	ErrorCategory      string          `json:"error_category,omitempty"`
	ErrorMessage       string          `json:"error_message,omitempty"`
}

// Ellipsise truncates s to maxLen, appending "..." when truncated.
func ellipsise(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// NewS3RequestMetric builds an S3RequestMetric, clamping object_key and
// error_message to their event-payload length limits.
func NewS3RequestMetric(id, operation string, category RequestCategory, profileID, profileName, bucket, objectKey string, duration time.Duration, bytes int64, objectsAffected int, success bool, errCategory, errMessage string) S3RequestMetric {
	return S3RequestMetric{
		ID:               id,
		TimestampMs:      time.Now().UnixMilli(),
		Operation:        operation,
		Category:         category,
		ProfileID:        profileID,
		ProfileName:      profileName,
		Bucket:           bucket,
		ObjectKey:        ellipsise(objectKey, maxObjectKeyLen),
		DurationMs:       duration.Milliseconds(),
		BytesTransferred: bytes,
		ObjectsAffected:  objectsAffected,
		Success:          success,
		ErrorCategory:    errCategory,
		ErrorMessage:     ellipsise(errMessage, maxErrorMessageLen),
	}
}

// Emitter is the sink CommandFacade pushes UI-facing events to. A thin UI/IPC
// layer implements this (e.g. forwarding to a Tauri/Electron event bus or the
// SSE broadcaster in pkg/httpapi).
type Emitter interface {
	EmitUploadProgress(UploadProgress)
	EmitDownloadProgress(DownloadProgress)
	EmitIndexProgress(IndexProgress)
	EmitMetric(S3RequestMetric)
}

// MultiEmitter fans every event out to each of its member Emitters in
// order, for a process that needs to drive both a console progress bar and
// an SSE broadcaster (or a Prometheus exporter) off the same facade.
type MultiEmitter []Emitter

func (m MultiEmitter) EmitUploadProgress(p UploadProgress) {
	for _, e := range m {
		e.EmitUploadProgress(p)
	}
}

func (m MultiEmitter) EmitDownloadProgress(p DownloadProgress) {
	for _, e := range m {
		e.EmitDownloadProgress(p)
	}
}

func (m MultiEmitter) EmitIndexProgress(p IndexProgress) {
	for _, e := range m {
		e.EmitIndexProgress(p)
	}
}

func (m MultiEmitter) EmitMetric(s S3RequestMetric) {
	for _, e := range m {
		e.EmitMetric(s)
	}
}
