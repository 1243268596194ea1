package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/stratnet/pkg/logging"
)

// Logging writes one structured line per request. Server errors log at
// error level, client errors at warn, everything else at debug.
func Logging(logger logging.Logger, getRequestID func(*http.Request) string) func(http.Handler) http.Handler {
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
				logging.Int("bytes", sw.bytesWritten),
				logging.Latency(time.Since(start)),
			}
			if getRequestID != nil {
				if id := getRequestID(r); id != "" {
					fields = append(fields, logging.RequestID(id))
				}
			}

			switch {
			case sw.statusCode >= 500:
				logger.Error("request", fields...)
			case sw.statusCode >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Debug("request", fields...)
			}
		})
	}
}
