package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AccessDevops/S3Explorer/pkg/facade"
	"github.com/AccessDevops/S3Explorer/pkg/profile"
)

// ProfileHandler exposes CommandFacade's profile commands over HTTP.
type ProfileHandler struct {
	facade *facade.Facade
}

func NewProfileHandler(f *facade.Facade) *ProfileHandler { return &ProfileHandler{facade: f} }

// profileRequest is the request/response body for profile endpoints.
// Credentials round-trip in plaintext over this local-only API, never
// touching the on-disk EncryptedProfile representation directly.
type profileRequest struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Endpoint     string `json:"endpoint,omitempty"`
	Region       string `json:"region,omitempty"`
	AccessKey    string `json:"access_key"`
	SecretKey    string `json:"secret_key"`
	SessionToken string `json:"session_token,omitempty"`
	PathStyle    bool   `json:"path_style,omitempty"`
}

func profileToResponse(p profile.Profile) profileRequest {
	return profileRequest{
		ID: p.ID, Name: p.Name, Endpoint: p.Endpoint, Region: p.Region,
		AccessKey: p.AccessKey, SecretKey: p.SecretKey, SessionToken: p.SessionToken, PathStyle: p.PathStyle,
	}
}

// List handles GET /api/v1/profiles.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.facade.ListProfiles()
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	out := make([]profileRequest, len(profiles))
	for i, p := range profiles {
		out[i] = profileToResponse(p)
	}
	WriteJSONOK(w, out)
}

// Create handles POST /api/v1/profiles.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	saved, err := h.facade.SaveProfile(profile.Profile{
		Name: req.Name, Endpoint: req.Endpoint, Region: req.Region,
		AccessKey: req.AccessKey, SecretKey: req.SecretKey, SessionToken: req.SessionToken, PathStyle: req.PathStyle,
	})
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteJSONCreated(w, profileToResponse(saved))
}

// Update handles PUT /api/v1/profiles/{id}.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req profileRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	saved, err := h.facade.SaveProfile(profile.Profile{
		ID: id, Name: req.Name, Endpoint: req.Endpoint, Region: req.Region,
		AccessKey: req.AccessKey, SecretKey: req.SecretKey, SessionToken: req.SessionToken, PathStyle: req.PathStyle,
	})
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	WriteJSONOK(w, profileToResponse(saved))
}

// Delete handles DELETE /api/v1/profiles/{id}.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	found, err := h.facade.DeleteProfile(id)
	if err != nil {
		HandleFacadeError(w, err)
		return
	}
	if !found {
		NotFound(w, "profile not found")
		return
	}
	WriteNoContent(w)
}
