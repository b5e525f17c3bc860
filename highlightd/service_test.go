package highlightd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/feed"
	"github.com/amirrezaask/highlight/graph"
	"github.com/amirrezaask/highlight/highlight"
	"github.com/amirrezaask/highlight/test"
	json "github.com/json-iterator/go"
	"github.com/matryer/is"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fixture struct {
	svc     *Service
	body    *graph.Body
	handler stdhttp.Handler
	spans   *tracetest.SpanRecorder
}

func newFixture(t *testing.T, ids ...graph.ID) *fixture {
	t.Helper()
	body := test.Body(ids...)
	reg := prometheus.NewRegistry()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(body,
		WithLogger(logger),
		WithMetrics(highlight.NewMetrics(reg, "test")),
		WithTracer(tp.Tracer("test")),
	)
	t.Cleanup(svc.Close)
	return &fixture{svc: svc, body: body, handler: NewHandler(svc, reg, "test"), spans: spans}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(method, path, r))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func TestPutHighlights(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "A", "B", "C")

	w := f.do(t, "PUT", "/highlights", `{"ids":["A","B"]}`)
	is.Equal(w.Code, 200)
	st := decode[State](t, w)
	is.Equal(st.IDs, []graph.ID{"A", "B"})
	is.Equal(st.Count, 2)
	is.Equal(st.Frame, int64(1))

	st = decode[State](t, f.do(t, "GET", "/highlights", ""))
	is.Equal(st.IDs, []graph.ID{"A", "B"})
}

func TestPutHighlightsErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		ids    []graph.ID
	}{
		{name: "unknown id keeps earlier ones", body: `{"ids":["A","X","B"]}`, status: 404, ids: []graph.ID{"A"}},
		{name: "missing ids", body: `{}`, status: 400, ids: []graph.ID{"C"}},
		{name: "string instead of array", body: `{"ids":"A"}`, status: 400, ids: []graph.ID{"C"}},
		{name: "object element", body: `{"ids":[{"id":"A"}]}`, status: 400, ids: []graph.ID{"C"}},
		{name: "broken json", body: `{"ids":[`, status: 400, ids: []graph.ID{"C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			f := newFixture(t, "A", "B", "C")
			f.do(t, "POST", "/nodes/C/highlight", "")

			w := f.do(t, "PUT", "/highlights", tt.body)
			is.Equal(w.Code, tt.status)
			st := decode[State](t, f.do(t, "GET", "/highlights", ""))
			is.Equal(st.IDs, tt.ids)
			is.Equal(st.Frame, int64(1)) // only the single-node highlight redrew
		})
	}
}

func TestPutHighlightsNumericIDs(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "1", "2", "3")

	st := decode[State](t, f.do(t, "PUT", "/highlights", `{"ids":[1,3]}`))
	is.Equal(st.IDs, []graph.ID{"1", "3"})
}

func TestPutHighlightsLargeIntegerIDs(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "9007199254740992", "9007199254740993")

	w := f.do(t, "PUT", "/highlights", `{"ids":[9007199254740993]}`)
	is.Equal(w.Code, 200)
	st := decode[State](t, w)
	is.Equal(st.IDs, []graph.ID{"9007199254740993"})

	w = f.do(t, "PUT", "/highlights", `{"ids":[9007199254740995]}`)
	is.Equal(w.Code, 404)
	is.True(strings.Contains(w.Body.String(), `9007199254740995`))
}

func TestDeleteHighlights(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "A", "B")
	f.do(t, "PUT", "/highlights", `{"ids":["A","B"]}`)

	st := decode[State](t, f.do(t, "DELETE", "/highlights", ""))
	is.Equal(st.Count, 0)
	is.Equal(st.Frame, int64(2))
	is.True(!test.Vertex(f.body, "A").IsHighlighted())
}

func TestNodeHighlight(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "A", "B")

	res := decode[highlightResponse](t, f.do(t, "POST", "/nodes/A/highlight", ""))
	is.True(res.Highlighted)
	is.True(test.Vertex(f.body, "A").IsHighlighted())

	res = decode[highlightResponse](t, f.do(t, "POST", "/nodes/Z/highlight", ""))
	is.True(!res.Highlighted)

	st := decode[State](t, f.do(t, "DELETE", "/nodes/A/highlight", ""))
	is.Equal(st.Count, 0)
	is.True(!test.Vertex(f.body, "A").IsHighlighted())

	w := f.do(t, "DELETE", "/nodes/Z/highlight", "")
	is.Equal(w.Code, 200)
}

func TestRemoveNodeReconciles(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "A", "B", "C")
	f.do(t, "PUT", "/highlights", `{"ids":["A","B"]}`)

	w := f.do(t, "DELETE", "/nodes/B", "")
	is.Equal(w.Code, stdhttp.StatusNoContent)
	st := decode[State](t, f.do(t, "GET", "/highlights", ""))
	is.Equal(st.IDs, []graph.ID{"A"})

	w = f.do(t, "DELETE", "/nodes/B", "")
	is.Equal(w.Code, 404)
}

func TestAddNodes(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "A")

	w := f.do(t, "POST", "/nodes", `{"nodes":[{"id":"B"},{"id":3}],"edges":[{"id":"ab","from":"A","to":"B"}]}`)
	is.Equal(w.Code, stdhttp.StatusCreated)
	res := decode[nodesResponse](t, w)
	is.Equal(res.IDs, []graph.ID{"3", "A", "B"})

	res = decode[nodesResponse](t, f.do(t, "GET", "/nodes", ""))
	is.Equal(res.Count, 3)

	w = f.do(t, "POST", "/nodes", `{"nodes":[{"id":true}]}`)
	is.Equal(w.Code, 400)
}

func TestDebugState(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "A", "B")
	f.body.PutEdge(graph.NewEdge("ab", "A", "B"))
	f.do(t, "PUT", "/highlights", `{"ids":["B"]}`)

	w := f.do(t, "GET", "/debug/state", "")
	is.Equal(w.Code, 200)
	is.True(strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	is.True(strings.Contains(w.Body.String(), "Highlighted"))
	is.True(strings.Contains(w.Body.String(), "ab: A -> B"))
}

func TestHealthz(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	is.Equal(f.do(t, "GET", "/healthz", "").Code, 200)

	svc := NewService(graph.NewBody(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") }),
	)
	defer svc.Close()
	w := httptest.NewRecorder()
	NewHandler(svc, prometheus.NewRegistry(), "test").ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	is.Equal(w.Code, stdhttp.StatusServiceUnavailable)
	is.True(strings.Contains(w.Body.String(), "connection refused"))
}

func TestMetricsEndpoint(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "A")
	f.do(t, "PUT", "/highlights", `{"ids":["A"]}`)

	body := f.do(t, "GET", "/metrics", "").Body.String()
	is.True(strings.Contains(body, `test_highlight_nodes 1`))
	is.True(strings.Contains(body, `test_highlight_redraw_requests_total 1`))
	is.True(strings.Contains(body, `test_httpserver_requests_total{handler="PUT /highlights",method="PUT",status="200"} 1`))
}

func TestSpansRecordErrors(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, "A")

	_, err := f.svc.HighlightNodes(context.Background(), []string{"missing"})
	is.Equal(errors.KindOf(err), errors.KindNotFound)

	ended := f.spans.Ended()
	is.True(len(ended) > 0)
	last := ended[len(ended)-1]
	is.Equal(last.Name(), "highlightd.HighlightNodes")
	is.Equal(last.Status().Code, codes.Error)
}

func TestApplyFromFeedsIsSerialized(t *testing.T) {
	is := is.New(t)
	ids := test.NodeIDs(test.Fakery(), 40)
	f := newFixture(t, ids...)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = f.svc.HighlightNodes(ctx, []graph.ID{test.RandomElement(ids...), test.RandomElement(ids...)})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				id := test.RandomElement(ids...)
				_ = f.svc.Apply(ctx, feed.Mutation{Op: feed.OpRemove, IDs: []any{string(id)}})
				_ = f.svc.Apply(ctx, feed.Mutation{Op: feed.OpAdd, Nodes: []feed.NodeSpec{{ID: string(id)}}})
			}
		}()
	}
	wg.Wait()

	for _, id := range f.svc.Highlights(ctx).IDs {
		n, ok := f.body.Node(id)
		is.True(ok)
		is.True(n.IsHighlighted())
	}
}

func TestLoadSeed(t *testing.T) {
	is := is.New(t)
	body := graph.NewBody()
	commits := 0
	body.Emitter().On(graph.EventDataChanged, func(...any) { commits++ })

	err := LoadSeed(body, bytes.NewBufferString(`{"nodes":[{"id":"a","label":"A"},{"id":1}],"edges":[{"id":"e","from":"a","to":1}]}`))
	is.NoErr(err)
	is.Equal(body.NodeIDs(), []graph.ID{"1", "a"})
	is.Equal(len(body.Edges()), 1)
	is.Equal(commits, 1)

	err = LoadSeed(graph.NewBody(), strings.NewReader(`nope`))
	is.Equal(errors.KindOf(err), errors.KindInvalidArgument)
}

type objects map[string]string

func (o objects) Get(_ context.Context, name string) (io.ReadCloser, error) {
	v, ok := o[name]
	if !ok {
		return nil, errors.E(errors.KindNotFound, "object %s not found", name)
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

func TestLoadSeedObject(t *testing.T) {
	is := is.New(t)
	store := objects{"main.json": `{"nodes":[{"id":"x"},{"id":9007199254740993}]}`, "bad.json": `[`}
	ctx := context.Background()

	body := graph.NewBody()
	is.NoErr(LoadSeedObject(ctx, body, store, "main.json"))
	is.Equal(body.NodeIDs(), []graph.ID{"9007199254740993", "x"})

	err := LoadSeedObject(ctx, graph.NewBody(), store, "missing.json")
	is.Equal(errors.KindOf(err), errors.KindNotFound)

	err = LoadSeedObject(ctx, graph.NewBody(), store, "bad.json")
	is.Equal(errors.KindOf(err), errors.KindInvalidArgument)
}
