package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tphummel/server_inventory/internal/metrics"
	"github.com/tphummel/server_inventory/internal/middleware"
)

// Routes builds the service router. Everything under /api/v1 requires the
// bearer token; health, metrics and docs do not.
func (h *Handler) Routes(token string) http.Handler {
	skip := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(slog.Default(), skip))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/openapi.yaml", OpenAPISpec)
	r.Get("/docs", Docs)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(token))

		r.Route("/servers", func(r chi.Router) {
			r.Get("/", h.ListServers)
			r.Post("/", h.CreateServer)
			r.Post("/bulk/update", h.BulkUpdate)
			r.Post("/bulk/patch", h.BulkMarkPatched)
			r.Post("/bulk/delete", h.BulkDelete)
			r.Get("/{id}", h.GetServer)
			r.Put("/{id}", h.UpdateServer)
			r.Delete("/{id}", h.DeleteServer)
		})
		r.Get("/stats", h.Stats)

		r.Route("/import", func(r chi.Router) {
			r.Post("/text", h.ImportText)
			r.Post("/spreadsheet", h.ImportSpreadsheet)
			r.Get("/template", h.Template)
		})

		r.Route("/vcenters", func(r chi.Router) {
			r.Get("/", h.ListVCenters)
			r.Post("/", h.CreateVCenter)
			r.Put("/{id}", h.UpdateVCenter)
			r.Delete("/{id}", h.DeleteVCenter)
		})

		r.Route("/assistant", func(r chi.Router) {
			r.Post("/analyze", h.Analyze)
			r.Post("/import", h.AssistantImport)
		})
	})
	return r
}
