package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AccessDevops/S3Explorer/pkg/facade"
)

// ObjectHandler exposes CommandFacade's bucket/object browsing and mutation
// commands over HTTP.
type ObjectHandler struct {
	facade *facade.Facade
}

func NewObjectHandler(f *facade.Facade) *ObjectHandler { return &ObjectHandler{facade: f} }

// ListBuckets handles GET /api/v1/profiles/{profileID}/buckets.
func (h *ObjectHandler) ListBuckets(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	buckets, err := h.facade.ListBuckets(r.Context(), profileID)
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteJSONOK(w, buckets)
}

// ListObjects handles GET /api/v1/profiles/{profileID}/buckets/{bucket}/objects.
// Query params: prefix, continuation_token.
func (h *ObjectHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	bucket := chi.URLParam(r, "bucket")
	q := r.URL.Query()

	page, err := h.facade.ListObjects(r.Context(), profileID, bucket, q.Get("prefix"), q.Get("continuation_token"))
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteJSONOK(w, page)
}

// Search handles GET /api/v1/profiles/{profileID}/buckets/{bucket}/search.
// Query params: q (substring), prefix, limit.
func (h *ObjectHandler) Search(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	bucket := chi.URLParam(r, "bucket")
	q := r.URL.Query()

	limit := 100
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := h.facade.SearchObjects(r.Context(), profileID, bucket, q.Get("q"), q.Get("prefix"), limit)
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteJSONOK(w, results)
}

// Delete handles DELETE /api/v1/profiles/{profileID}/buckets/{bucket}/objects/{key}.
// key is expected URL-encoded by the caller, since S3 keys may contain "/".
func (h *ObjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")

	if err := h.facade.DeleteObject(r.Context(), profileID, bucket, key); err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteNoContent(w)
}

// copyObjectRequest is the request body for POST .../copy.
type copyObjectRequest struct {
	SrcBucket string `json:"src_bucket"`
	SrcKey    string `json:"src_key"`
	DstBucket string `json:"dst_bucket"`
	DstKey    string `json:"dst_key"`
}

// Copy handles POST /api/v1/profiles/{profileID}/objects/copy.
func (h *ObjectHandler) Copy(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	var req copyObjectRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := h.facade.CopyObject(r.Context(), profileID, req.SrcBucket, req.SrcKey, req.DstBucket, req.DstKey); err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteNoContent(w)
}
