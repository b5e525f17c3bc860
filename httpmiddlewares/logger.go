package httpmiddlewares

import (
	"log/slog"
	"net/http"
	"time"
)

func RequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"handler", Pattern(r),
				"proto", r.Proto,
				"status", rec.code(),
				"elapsed", time.Since(start),
			)
		})
	}
}
