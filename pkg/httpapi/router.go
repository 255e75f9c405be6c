// Package httpapi puts a chi-routed HTTP surface in front of CommandFacade:
// request/response endpoints for profile, bucket, object, indexing, and
// transfer commands, plus a Server-Sent Events stream for progress and
// index events: the thin IPC bridge for UI shells that can't link the
// facade directly.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AccessDevops/S3Explorer/internal/logger"
	"github.com/AccessDevops/S3Explorer/pkg/facade"
	"github.com/AccessDevops/S3Explorer/pkg/metrics/promexport"
)

// NewRouter builds the HTTP handler for S3Explorer's local API bridge.
// exporter may be nil to skip mounting a Prometheus scrape endpoint.
func NewRouter(f *facade.Facade, broadcaster *Broadcaster, exporter *promexport.Exporter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSONOK(w, map[string]string{"status": "ok"})
	})

	if exporter != nil {
		r.Get("/metrics", exporter.Handler().ServeHTTP)
	}

	profiles := NewProfileHandler(f)
	objects := NewObjectHandler(f)
	indexing := NewIndexingHandler(f)
	transfers := NewTransferHandler(f)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", broadcaster.Stream)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", profiles.List)
			r.Post("/", profiles.Create)

			r.Route("/{profileID}", func(r chi.Router) {
				r.Put("/", profiles.Update)
				r.Delete("/", profiles.Delete)

				r.Get("/buckets", objects.ListBuckets)
				r.Get("/buckets/{bucket}/objects", objects.ListObjects)
				r.Get("/buckets/{bucket}/search", objects.Search)
				r.Delete("/buckets/{bucket}/objects/*", objects.Delete)
				r.Post("/objects/copy", objects.Copy)

				r.Post("/buckets/{bucket}/index", indexing.Start)
				r.Delete("/buckets/{bucket}/index", indexing.Cancel)

				r.Post("/uploads", transfers.StartUpload)
				r.Post("/downloads", transfers.StartDownload)
			})
		})

		r.Delete("/uploads/{transferID}", transfers.CancelUpload)
		r.Delete("/downloads/{transferID}", transfers.CancelDownload)
	})

	return r
}

// requestLogger logs request start (debug) and completion (info).
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		log := logger.L().With("request_id", requestID, "method", r.Method, "path", r.URL.Path)

		log.Debug("http request started", "remote_addr", r.RemoteAddr)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info("http request completed", "status", ww.Status(), "bytes", ww.BytesWritten(), "duration", time.Since(start).String())
	})
}
