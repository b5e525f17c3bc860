package httpmiddlewares

import (
	"net/http"

	"github.com/getsentry/sentry-go"
)

// Sentry reports panics to the current hub and re-panics so Recover, placed
// outside it, can answer the request.
func Sentry(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(r)
		defer func() {
			rec := recover()
			if rec != nil {
				hub.Recover(rec)
				panic(rec)
			}
		}()

		h.ServeHTTP(w, r.WithContext(sentry.SetHubOnContext(r.Context(), hub)))
	})
}
