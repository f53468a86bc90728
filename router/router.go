// Package router assembles the standard middleware stack for gconnect's
// HTTP surface.
package router

import (
	"github.com/gconnectapp/gconnect/config"
	"github.com/gconnectapp/gconnect/logging"
	"github.com/gconnectapp/gconnect/metrics"
	"github.com/gconnectapp/gconnect/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router pre-wired with:
//   - RequestID / RealIP
//   - Recoverer (panic → 500)
//   - body size limit
//   - CORS (config-driven)
//   - metrics HTTP middleware
//   - request logging
//   - JSON NotFound / MethodNotAllowed handlers
//
// Routes stay an app-level decision; see the web package.
func New(cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.LimitBodySize(cfg.MaxRequestBodyBytes))
	r.Use(middleware.CORSFromConfig(cfg))

	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
