package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

// Problem is an RFC 7807 "problem details" response.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const contentTypeProblemJSON = "application/problem+json"

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", contentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func BadRequest(w http.ResponseWriter, detail string) { WriteProblem(w, http.StatusBadRequest, "Bad Request", detail) }
func NotFound(w http.ResponseWriter, detail string)   { WriteProblem(w, http.StatusNotFound, "Not Found", detail) }
func Conflict(w http.ResponseWriter, detail string)   { WriteProblem(w, http.StatusConflict, "Conflict", detail) }
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteJSONOK(w http.ResponseWriter, data any)      { WriteJSON(w, http.StatusOK, data) }
func WriteJSONCreated(w http.ResponseWriter, data any) { WriteJSON(w, http.StatusCreated, data) }
func WriteNoContent(w http.ResponseWriter)             { w.WriteHeader(http.StatusNoContent) }

// decodeJSONBody decodes r's JSON body into v, writing a 400 on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body")
		return false
	}
	return true
}

// HandleFacadeError maps an *errs.Error (or any error) to an HTTP problem
// response, the dispatch-layer counterpart to pkg/errs's taxonomy.
func HandleFacadeError(w http.ResponseWriter, err error) {
	code, ok := errs.CodeOf(err)
	if !ok {
		InternalServerError(w, err.Error())
		return
	}
	switch code {
	case errs.ValidationError:
		BadRequest(w, err.Error())
	case errs.ProfileNotFound:
		NotFound(w, err.Error())
	case errs.S3Error:
		handleS3Error(w, err)
	default:
		InternalServerError(w, err.Error())
	}
}

func handleS3Error(w http.ResponseWriter, err error) {
	var category errs.Category
	if e, ok := err.(*errs.Error); ok {
		category = e.Category
	}
	switch category {
	case errs.BucketNotFound, errs.ObjectNotFound:
		NotFound(w, err.Error())
	case errs.BucketAlreadyExists:
		Conflict(w, err.Error())
	case errs.AccessDenied, errs.InvalidCredentials, errs.ExpiredCredentials:
		WriteProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errs.InvalidBucketName, errs.InvalidObjectKey, errs.RequestTooLarge:
		BadRequest(w, err.Error())
	case errs.ServiceUnavailable, errs.SlowDown:
		WriteProblem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}
