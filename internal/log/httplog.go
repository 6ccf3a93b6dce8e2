package log

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

// HTTPMiddleware logs one line per request with status, size and latency.
// Server errors are logged at warn level, everything else at debug.
func HTTPMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"duration_ms", m.Duration.Milliseconds(),
				"size", m.Written,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}
			if m.Code >= http.StatusInternalServerError {
				logger.Warnw("http request", fields...)
				return
			}
			logger.Debugw("http request", fields...)
		})
	}
}
