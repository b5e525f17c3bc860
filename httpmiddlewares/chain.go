package httpmiddlewares

import (
	"context"
	"net/http"
)

type Middleware = func(http.Handler) http.Handler

func Chain(ms ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := len(ms) - 1; i >= 0; i-- {
			h = ms[i](h)
		}

		return h
	}
}

type patternKey struct{}

// WithPattern records the mux pattern a request was routed by, so metrics
// and logs can label requests without exploding on path parameters.
func WithPattern(r *http.Request, pattern string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), patternKey{}, pattern))
}

// Pattern returns the pattern stored by WithPattern, or the raw path.
func Pattern(r *http.Request) string {
	if p, ok := r.Context().Value(patternKey{}).(string); ok {
		return p
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
