package httpmiddlewares

import (
	"log/slog"
	"net/http"
	"runtime"
)

// Recover turns a panicking handler into a 500 response.
func Recover(logger *slog.Logger) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				stack := make([]byte, 4<<10)
				stack = stack[:runtime.Stack(stack, false)]
				if err, isErr := rec.(error); isErr {
					logger.Error(err.Error(), "panic", true, "path", r.URL.Path, "stack", string(stack))
				} else {
					logger.Error("unknown recover", "recover()", rec, "path", r.URL.Path, "stack", string(stack))
				}
				w.WriteHeader(http.StatusInternalServerError)
			}()
			h.ServeHTTP(w, r)
		})
	}
}
