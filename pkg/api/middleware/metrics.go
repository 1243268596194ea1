package middleware

import (
	"cmp"
	"net/http"
	"strconv"
	"time"
)

// MetricsRecorder receives per-request observations. *metrics.Registry
// implements it.
type MetricsRecorder interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
	RecordResponseSize(method, path string, size float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()
}

// Requests that matched no ServeMux pattern share this label.
const unmatchedRoute = "unmatched"

// Metrics labels each request by the route pattern that served it rather
// than the raw path.
func Metrics(recorder MetricsRecorder) func(http.Handler) http.Handler {
	if recorder == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder.IncHTTPRequestsInFlight()
			defer recorder.DecHTTPRequestsInFlight()

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			route := cmp.Or(r.Pattern, unmatchedRoute)
			recorder.RecordHTTPRequest(r.Method, route, strconv.Itoa(sw.statusCode), elapsed)
			recorder.RecordResponseSize(r.Method, route, float64(sw.bytesWritten))
		})
	}
}
