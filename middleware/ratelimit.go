package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gconnectapp/gconnect/httputil"
	"go.uber.org/zap"
)

// bucket is one client's token bucket.
type bucket struct {
	tokens float64
	last   time.Time
}

// maxBuckets bounds the per-IP table; once exceeded, fully refilled buckets
// are pruned on the next request.
const maxBuckets = 10000

// PerIPRateLimit returns a middleware applying a token bucket per client IP:
// ratePerMinute tokens refill per minute up to burst. A ratePerMinute <= 0
// disables the limiter. Meant for the credential endpoint, where every
// request costs a full authentication flow against the portal.
func PerIPRateLimit(ratePerMinute, burst int, logger *zap.Logger) func(next http.Handler) http.Handler {
	if ratePerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
		rate    = float64(ratePerMinute) / 60.0
	)

	allow := func(key string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		if len(buckets) > maxBuckets {
			for k, b := range buckets {
				if now.Sub(b.last).Seconds()*rate >= float64(burst) {
					delete(buckets, k)
				}
			}
		}

		b, ok := buckets[key]
		if !ok {
			b = &bucket{tokens: float64(burst), last: now}
			buckets[key] = b
		}
		b.tokens += now.Sub(b.last).Seconds() * rate
		if b.tokens > float64(burst) {
			b.tokens = float64(burst)
		}
		b.last = now

		if b.tokens >= 1 {
			b.tokens--
			return true
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !allow(key, time.Now()) {
				if logger != nil {
					logger.Info("rate_limited",
						zap.String("ip", key),
						zap.String("path", r.URL.Path),
					)
				}
				httputil.JSONError(w, http.StatusTooManyRequests, "rate_limited", "too many authentication attempts; try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
