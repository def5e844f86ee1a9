package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsRecorder is an interface for recording HTTP metrics
type MetricsRecorder interface {
	RecordHTTPRequest(method, route, status string, duration time.Duration)
	RecordResponseSize(method, route string, size float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()
}

// RouteFunc names the route a request belongs to. Using route templates
// rather than raw paths keeps label cardinality bounded.
type RouteFunc func(*http.Request) string

// Metrics creates middleware that tracks HTTP request metrics.
func Metrics(recorder MetricsRecorder, route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorder == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder.IncHTTPRequestsInFlight()
			defer recorder.DecHTTPRequestsInFlight()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			name := r.URL.Path
			if route != nil {
				name = route(r)
			}
			recorder.RecordHTTPRequest(r.Method, name, strconv.Itoa(sw.statusCode), time.Since(start))
			recorder.RecordResponseSize(r.Method, name, float64(sw.bytesWritten))
		})
	}
}
