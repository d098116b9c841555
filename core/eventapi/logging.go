package eventapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// DefaultSlowRequestThreshold is the duration above which requests are logged at warn level.
const DefaultSlowRequestThreshold = 5 * time.Second

// RequestLogger logs one line per request with method, path, status and
// duration. Server errors log at error level and slow requests at warn.
func RequestLogger(log *slog.Logger, slowThreshold time.Duration) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowRequestThreshold
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			level := slog.LevelDebug
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case elapsed >= slowThreshold:
				level = slog.LevelWarn
			}

			log.Log(r.Context(), level, "http request",
				logger.Key("method", r.Method),
				logger.Key("path", r.URL.Path),
				logger.Key("status", status),
				logger.Key("bytes", ww.BytesWritten()),
				logger.Key("request_id", middleware.GetReqID(r.Context())),
				logger.Duration(elapsed))
		})
	}
}
