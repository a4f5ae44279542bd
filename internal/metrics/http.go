package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// quoteIDPattern matches quote identifiers ("Q-1718900000000-42") in paths.
var quoteIDPattern = regexp.MustCompile(`Q-[0-9]+-[0-9]+`)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routeLabel prefers the ServeMux pattern that matched ("/api/quotes/{id}")
// and falls back to the path with quote IDs collapsed. Unmatched paths are
// grouped so scanners cannot explode label cardinality.
func routeLabel(r *http.Request, status int) string {
	if r.Pattern != "" {
		// Patterns may carry a method: "GET /api/quotes/{id}"
		if _, path, ok := strings.Cut(r.Pattern, " "); ok {
			return path
		}
		return r.Pattern
	}
	if status == http.StatusNotFound {
		return "unmatched"
	}
	return normalizePath(r.URL.Path)
}

// normalizePath replaces quote IDs with {id}.
func normalizePath(path string) string {
	return quoteIDPattern.ReplaceAllString(path, "{id}")
}

// Middleware records request count, latency, and in-flight requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Scrapes would otherwise dominate the request histogram
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := routeLabel(r, rw.status)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
