package web

import (
	"net/http"

	"github.com/gconnectapp/gconnect/httputil"
	"github.com/gconnectapp/gconnect/metrics"
	"github.com/go-chi/chi/v5"
)

// Mount attaches the API routes plus health and metrics endpoints.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		if h.loginLimit != nil {
			r.With(h.loginLimit).Post("/login", h.Login)
		} else {
			r.Post("/login", h.Login)
		}
		r.Post("/sync", h.Sync)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
}
