// Package metrics registers gconnect's Prometheus collectors: the standard
// runtime/process collectors, an HTTP request histogram, and counters for
// portal authentications and extraction-strategy hits.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// reqDuration is a histogram of HTTP request durations in seconds, labeled
// by route pattern, method and status code.
var reqDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5, 15},
	},
	[]string{"path", "method", "status"},
)

// authAttempts counts portal authentications by outcome: "ok",
// "credentials_rejected", "upstream_error".
var authAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gconnect_auth_attempts_total",
		Help: "Portal authentication attempts by outcome.",
	},
	[]string{"outcome"},
)

// strategyHits counts which extraction strategy produced records, by record
// domain. A school drifting off strategy one is the early signal that the
// upstream shape changed again.
var strategyHits = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gconnect_extraction_strategy_hits_total",
		Help: "Winning extraction strategies by record domain.",
	},
	[]string{"domain", "strategy"},
)

// RegisterDefault registers all collectors. Call once at startup; duplicate
// registration (tests) is tolerated.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "auth attempts counter", authAttempts)
	mustRegister(logger, "strategy hits counter", strategyHits)
}

func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		if logger != nil {
			logger.Fatal("failed to register "+name, zap.Error(err))
		}
		panic("metrics: failed to register " + name + ": " + err.Error())
	}
}

// CountAuth records one authentication attempt.
func CountAuth(outcome string) {
	authAttempts.WithLabelValues(outcome).Inc()
}

// CountStrategyHit records a winning extraction strategy. Its signature
// matches argo.WithStrategyObserver.
func CountStrategyHit(domain, strategy string) {
	strategyHits.WithLabelValues(domain, strategy).Inc()
}

// HTTPMetrics is a middleware recording request durations. It labels by chi
// route pattern, not raw path, to keep label cardinality bounded.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		reqDuration.WithLabelValues(path, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
