package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
)

// Logging creates middleware that logs one line per request. Server errors
// are logged at ERROR with the full query string, client errors at WARN.
func Logging(logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.Int("status", sw.statusCode),
				logging.Latency(time.Since(start)),
			}
			if id := GetRequestID(r); id != "" {
				fields = append(fields, logging.RequestID(id))
			}

			switch {
			case sw.statusCode >= http.StatusInternalServerError:
				fields = append(fields, logging.String("query", r.URL.RawQuery))
				logger.Error("request failed", fields...)
			case sw.statusCode >= http.StatusBadRequest:
				logger.Warn("request rejected", fields...)
			default:
				logger.Debug("request served", fields...)
			}
		})
	}
}
