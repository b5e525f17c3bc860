// Package highlightd serves one graph store and its highlight registry over
// HTTP and keeps the store in step with external mutation feeds.
package highlightd

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/amirrezaask/highlight/dump"
	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/feed"
	"github.com/amirrezaask/highlight/graph"
	"github.com/amirrezaask/highlight/highlight"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amirrezaask/highlight/highlightd"

// HealthCheck reports whether a dependency of the service is usable.
type HealthCheck func(ctx context.Context) error

// Service serializes every registry command and store mutation under one
// mutex, so the registry observes the same run-to-completion order it would
// inside a single event loop.
type Service struct {
	mu       sync.Mutex
	body     *graph.Body
	registry *highlight.Registry

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *highlight.Metrics
	checks  map[string]HealthCheck

	frames    atomic.Int64
	offRedraw func()
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *highlight.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Service) { s.checks[name] = check }
}

func NewService(body *graph.Body, opts ...Option) *Service {
	s := &Service{
		body:   body,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		checks: map[string]HealthCheck{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = highlight.New(body,
		highlight.WithLogger(s.logger.With("component", "highlight")),
		highlight.WithMetrics(s.metrics),
	)
	s.offRedraw = body.Emitter().On(graph.EventRequestRedraw, func(...any) {
		s.frames.Add(1)
	})
	return s
}

func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Close()
	s.offRedraw()
}

// State is the externally visible highlight state.
type State struct {
	IDs   []graph.ID `json:"ids"`
	Count int        `json:"count"`
	// Frame counts redraw requests since start.
	Frame int64 `json:"frame"`
}

func (s *Service) state() State {
	ids := s.registry.HighlightedNodes()
	return State{IDs: ids, Count: len(ids), Frame: s.frames.Load()}
}

func (s *Service) Highlights(ctx context.Context) State {
	_, span := s.tracer.Start(ctx, "highlightd.Highlights")
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// HighlightNodes replaces the highlighted set. ids is anything the registry
// accepts, typically a decoded JSON array.
func (s *Service) HighlightNodes(ctx context.Context, ids any) (State, error) {
	_, span := s.tracer.Start(ctx, "highlightd.HighlightNodes")
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.registry.HighlightNodes(ids)
	st := s.state()
	span.SetAttributes(attribute.Int("highlight.count", st.Count))
	if err != nil {
		fail(span, err)
		return st, err
	}
	return st, nil
}

func (s *Service) TurnOffAll(ctx context.Context) State {
	_, span := s.tracer.Start(ctx, "highlightd.TurnOffAll")
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.TurnOffAllHighlights()
	s.body.RequestRedraw()
	return s.state()
}

// HighlightNode highlights the node with id. Unknown ids are reported as not
// highlighted rather than as an error.
func (s *Service) HighlightNode(ctx context.Context, id graph.ID) bool {
	_, span := s.tracer.Start(ctx, "highlightd.HighlightNode", trace.WithAttributes(attribute.String("node.id", id.String())))
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	node, _ := s.body.Node(id)
	if !s.registry.HighlightObject(node) {
		return false
	}
	s.body.RequestRedraw()
	return true
}

func (s *Service) UnhighlightNode(ctx context.Context, id graph.ID) State {
	_, span := s.tracer.Start(ctx, "highlightd.UnhighlightNode", trace.WithAttributes(attribute.String("node.id", id.String())))
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	if node, ok := s.body.Node(id); ok {
		s.registry.TurnHighlightOffForObject(node)
		s.body.RequestRedraw()
	}
	return s.state()
}

func (s *Service) NodeIDs(ctx context.Context) []graph.ID {
	_, span := s.tracer.Start(ctx, "highlightd.NodeIDs")
	defer span.End()
	return s.body.NodeIDs()
}

// RemoveNode deletes a node out of band. The registry reconciles on the
// resulting change notification.
func (s *Service) RemoveNode(ctx context.Context, id graph.ID) error {
	_, span := s.tracer.Start(ctx, "highlightd.RemoveNode", trace.WithAttributes(attribute.String("node.id", id.String())))
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.body.HasNode(id) {
		err := &highlight.NotFoundError{ID: id}
		fail(span, err)
		return err
	}
	s.body.Remove(id)
	return nil
}

// Apply performs a store mutation. It has the shape of feed.Applier so feeds
// can be pointed straight at it.
func (s *Service) Apply(ctx context.Context, m feed.Mutation) error {
	_, span := s.tracer.Start(ctx, "highlightd.Apply", trace.WithAttributes(attribute.String("mutation.op", string(m.Op))))
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.registry.Count()
	if err := m.ApplyTo(s.body); err != nil {
		fail(span, err)
		return err
	}
	s.logger.Debug("graph mutation applied", "op", m.Op, "highlighted_before", before, "highlighted", s.registry.Count())
	return nil
}

// Health runs every registered check and returns the failures by name.
func (s *Service) Health(ctx context.Context) map[string]string {
	failures := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	return failures
}

type debugState struct {
	Highlighted []graph.ID
	Nodes       int
	Edges       []string
	Frame       int64
	Listeners   map[string]int
}

// DebugState renders the registry and store for humans.
func (s *Service) DebugState(ctx context.Context) string {
	_, span := s.tracer.Start(ctx, "highlightd.DebugState")
	defer span.End()
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := s.body.Edges()
	d := debugState{
		Highlighted: s.registry.HighlightedNodes(),
		Nodes:       s.body.Len(),
		Edges:       make([]string, 0, len(edges)),
		Frame:       s.frames.Load(),
		Listeners: map[string]int{
			graph.EventDataChanged:   s.body.Emitter().Listeners(graph.EventDataChanged),
			graph.EventRequestRedraw: s.body.Emitter().Listeners(graph.EventRequestRedraw),
		},
	}
	for _, e := range edges {
		d.Edges = append(d.Edges, e.EdgeID().String()+": "+e.From.String()+" -> "+e.To.String())
	}
	return dump.String(d)
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.kind", string(errors.KindOf(err))))
}
