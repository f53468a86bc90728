package middleware

import (
	"net/http"

	"github.com/gconnectapp/gconnect/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies CORS behavior from the config's CORS section. When
// enable_cors is false it returns an identity middleware, so it can be wired
// unconditionally and the config decides.
func CORSFromConfig(cfg *config.Config) func(next http.Handler) http.Handler {
	if cfg == nil || !cfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORS.CORSAllowedHeaders,
		AllowCredentials: cfg.CORS.CORSAllowCredentials,
		MaxAge:           cfg.CORS.CORSMaxAge,
	})
}
