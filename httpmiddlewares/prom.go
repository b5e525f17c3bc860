package httpmiddlewares

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func PrometheusExporter(reg prometheus.Registerer, namespace string, excludePaths ...string) Middleware {
	pathRegexps := []*regexp.Regexp{}

	for _, path := range excludePaths {
		pathRegexps = append(pathRegexps, regexp.MustCompile(path))
	}
	Buckets := []float64{
		0.0005,
		0.001, // 1ms
		0.002,
		0.005,
		0.01, // 10ms
		0.02,
		0.05,
		0.1, // 100 ms
		0.2,
		0.5,
		1.0, // 1s
		2.0,
		5.0,
	}
	factory := promauto.With(reg)
	requestsHist := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "httpserver",
		Name:      "requests_duration",
		Buckets:   Buckets,
	}, []string{"status", "method", "handler"})

	requestCount := factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "httpserver",
			Name:      "requests_total",
			Help:      "How many HTTP requests processed, partitioned by status code and HTTP method.",
		},
		[]string{"status", "method", "handler"},
	)
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			for _, path := range pathRegexps {
				if path.MatchString(req.URL.Path) {
					h.ServeHTTP(w, req)
					return
				}
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			h.ServeHTTP(rec, req)

			status := fmt.Sprint(rec.code())
			requestCount.WithLabelValues(status, req.Method, Pattern(req)).Inc()
			requestsHist.WithLabelValues(status, req.Method, Pattern(req)).
				Observe(time.Since(start).Seconds())
		})
	}
}
