package highlightd

import (
	"log/slog"
	stdhttp "net/http"
	"strings"

	"github.com/amirrezaask/highlight/feed"
	"github.com/amirrezaask/highlight/graph"
	"github.com/amirrezaask/highlight/http"
	"github.com/amirrezaask/highlight/httpmiddlewares"
	"github.com/prometheus/client_golang/prometheus"
)

type highlightRequest struct {
	// IDs is left untyped so malformed input reaches the registry and is
	// reported as an invalid argument.
	IDs any `json:"ids"`
}

type nodeRequest struct {
	ID string `path:"id"`
}

type highlightResponse struct {
	ID          graph.ID `json:"id"`
	Highlighted bool     `json:"highlighted"`
}

type nodesRequest struct {
	Nodes []feed.NodeSpec `json:"nodes"`
	Edges []feed.EdgeSpec `json:"edges"`
}

type nodesResponse struct {
	IDs   []graph.ID `json:"ids"`
	Count int        `json:"count"`
}

// NewHandler routes the service's operations. reg backs both the request
// metrics and the /metrics endpoint.
func NewHandler(s *Service, reg *prometheus.Registry, namespace string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.UseMiddlewares(
		httpmiddlewares.Recover(s.logger),
		httpmiddlewares.Sentry,
		httpmiddlewares.RequestLogger(s.logger),
		httpmiddlewares.PrometheusExporter(reg, namespace, "^/metrics$", "^/healthz$"),
	)

	mux.HandleFunc("GET /highlights", func(r *http.Request) (http.Result, error) {
		return http.Result{Body: s.Highlights(r.Context())}, nil
	})
	mux.HandleFunc("PUT /highlights", func(r *http.Request, in *highlightRequest) (State, error) {
		return s.HighlightNodes(r.Context(), in.IDs)
	})
	mux.HandleFunc("DELETE /highlights", func(r *http.Request) (http.Result, error) {
		return http.Result{Body: s.TurnOffAll(r.Context())}, nil
	})
	mux.HandleFunc("POST /nodes/{id}/highlight", func(r *http.Request, in *nodeRequest) (highlightResponse, error) {
		id := graph.ID(in.ID)
		return highlightResponse{ID: id, Highlighted: s.HighlightNode(r.Context(), id)}, nil
	})
	mux.HandleFunc("DELETE /nodes/{id}/highlight", func(r *http.Request, in *nodeRequest) (State, error) {
		return s.UnhighlightNode(r.Context(), graph.ID(in.ID)), nil
	})

	mux.HandleFunc("GET /nodes", func(r *http.Request) (http.Result, error) {
		ids := s.NodeIDs(r.Context())
		return http.Result{Body: nodesResponse{IDs: ids, Count: len(ids)}}, nil
	})
	mux.HandleFunc("POST /nodes", func(r *http.Request) (http.Result, error) {
		var in nodesRequest
		if err := r.BindBody(&in); err != nil {
			return http.Result{}, err
		}
		if err := s.Apply(r.Context(), feed.Mutation{Op: feed.OpAdd, Nodes: in.Nodes, Edges: in.Edges}); err != nil {
			return http.Result{}, err
		}
		ids := s.NodeIDs(r.Context())
		return http.Result{Status: stdhttp.StatusCreated, Body: nodesResponse{IDs: ids, Count: len(ids)}}, nil
	})
	mux.HandleFunc("DELETE /nodes/{id}", func(r *http.Request) (http.Result, error) {
		if err := s.RemoveNode(r.Context(), graph.ID(r.PathValue("id"))); err != nil {
			return http.Result{}, err
		}
		return http.Result{Status: stdhttp.StatusNoContent}, nil
	})

	mux.HandleFunc("GET /debug/state", func(r *http.Request) (http.Result, error) {
		return http.Result{
			Header: stdhttp.Header{"Content-Type": {"text/plain; charset=utf-8"}},
			Body:   strings.NewReader(s.DebugState(r.Context())),
		}, nil
	})
	mux.HandleFunc("GET /healthz", func(r *http.Request) (http.Result, error) {
		failures := s.Health(r.Context())
		if len(failures) > 0 {
			s.logger.Warn("health check failed", slog.Any("failures", failures))
			return http.Result{Status: stdhttp.StatusServiceUnavailable, Body: map[string]any{"status": "unhealthy", "failures": failures}}, nil
		}
		return http.Result{Body: map[string]string{"status": "ok"}}, nil
	})
	mux.MapPrometheusEndpoint("/metrics", reg)

	return mux
}
