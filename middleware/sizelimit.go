package middleware

import "net/http"

// LimitBodySize returns a middleware limiting the request body to maxBytes.
// With maxBytes <= 0 it is a no-op. Login payloads are tiny; anything large
// aimed at these endpoints is garbage.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
