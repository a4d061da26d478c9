package httphandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/niksmo/storefront/internal/core/port"
)

// NewRouter mounts the storefront API under /v1.
func NewRouter(sf port.Storefront) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, AllowJSON)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/v1", func(v1 chi.Router) {
		RegisterCatalog(v1, sf)

		v1.Group(func(r chi.Router) {
			r.Use(Session)
			RegisterStorefront(r, sf)
			RegisterCart(r, sf, sf)
		})
	})

	return r
}
