package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AccessDevops/S3Explorer/pkg/facade"
	"github.com/AccessDevops/S3Explorer/pkg/index"
)

// IndexingHandler exposes CommandFacade's indexing commands over HTTP.
// Progress and terminal state arrive over the /api/v1/events SSE stream,
// not in these responses.
type IndexingHandler struct {
	facade *facade.Facade
}

func NewIndexingHandler(f *facade.Facade) *IndexingHandler { return &IndexingHandler{facade: f} }

// startIndexingRequest is the request body for POST .../index.
type startIndexingRequest struct {
	MaxInitialRequests int   `json:"max_initial_requests,omitempty"`
	BatchSize          int32 `json:"batch_size,omitempty"`
	StaleTTLHours      int   `json:"stale_ttl_hours,omitempty"`
}

// Start handles POST /api/v1/profiles/{profileID}/buckets/{bucket}/index.
func (h *IndexingHandler) Start(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	bucket := chi.URLParam(r, "bucket")

	var req startIndexingRequest
	if r.ContentLength != 0 {
		if !decodeJSONBody(w, r, &req) {
			return
		}
	}

	cfg := index.IndexingConfig{
		MaxInitialRequests: req.MaxInitialRequests,
		BatchSize:          req.BatchSize,
		StaleTTLHours:      req.StaleTTLHours,
	}
	if err := h.facade.StartIndexing(r.Context(), profileID, bucket, cfg); err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteJSONCreated(w, map[string]string{"status": "started"})
}

// Cancel handles DELETE /api/v1/profiles/{profileID}/buckets/{bucket}/index.
func (h *IndexingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	bucket := chi.URLParam(r, "bucket")
	h.facade.CancelIndexing(profileID, bucket)
	WriteNoContent(w)
}
