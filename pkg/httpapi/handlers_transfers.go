package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AccessDevops/S3Explorer/pkg/facade"
	"github.com/AccessDevops/S3Explorer/pkg/transfer"
)

// TransferHandler exposes CommandFacade's upload/download commands over
// HTTP. Both start endpoints return a transfer_id immediately; progress and
// completion arrive over the /api/v1/events SSE stream.
type TransferHandler struct {
	facade *facade.Facade
}

func NewTransferHandler(f *facade.Facade) *TransferHandler { return &TransferHandler{facade: f} }

type startUploadRequest struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	FilePath    string `json:"file_path"`
	ContentType string `json:"content_type,omitempty"`
}

// StartUpload handles POST /api/v1/profiles/{profileID}/uploads.
// FilePath must be a path on the machine running the httpapi server, since
// there's no multipart file upload here — the client and server share a
// filesystem.
func (h *TransferHandler) StartUpload(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	var req startUploadRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	transferID, err := h.facade.StartUpload(r.Context(), profileID, transfer.UploadInput{
		Bucket: req.Bucket, Key: req.Key, FilePath: req.FilePath, ContentType: req.ContentType,
	})
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteJSONCreated(w, map[string]string{"transfer_id": transferID})
}

// CancelUpload handles DELETE /api/v1/uploads/{transferID}.
func (h *TransferHandler) CancelUpload(w http.ResponseWriter, r *http.Request) {
	h.facade.CancelUpload(chi.URLParam(r, "transferID"))
	WriteNoContent(w)
}

type startDownloadRequest struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	DestPath string `json:"dest_path"`
}

// StartDownload handles POST /api/v1/profiles/{profileID}/downloads.
func (h *TransferHandler) StartDownload(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	var req startDownloadRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	transferID, err := h.facade.StartDownload(r.Context(), profileID, req.Bucket, req.Key, req.DestPath)
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteJSONCreated(w, map[string]string{"transfer_id": transferID})
}

// CancelDownload handles DELETE /api/v1/downloads/{transferID}.
func (h *TransferHandler) CancelDownload(w http.ResponseWriter, r *http.Request) {
	h.facade.CancelDownload(chi.URLParam(r, "transferID"))
	WriteNoContent(w)
}
