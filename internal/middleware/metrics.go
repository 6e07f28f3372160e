package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AdilSaeed0347/InsightFolio/internal/metrics"
)

// unmatchedRoute labels requests no route matched, so scanners probing
// random paths cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics records HTTP request count and latency per chi route pattern.
// Prometheus scrapes of /metrics are not recorded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := routeLabel(r)
		if route == "/metrics" {
			return
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel returns the matched route pattern. It must be read after the
// router has served the request.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return unmatchedRoute
	}
	// Subrouter mounts leave a trailing slash on index routes: /api/v1/chat/.
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	return pattern
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
