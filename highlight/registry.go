// Package highlight keeps track of which nodes of a graph are highlighted and
// keeps that set in step with the graph store as nodes come and go.
//
// A Registry is not safe for concurrent use. It expects the cooperative model
// of a UI event loop: every command runs to completion, and the store's
// change notification (which triggers reconciliation) is delivered
// synchronously by graph.Body.Commit. Callers on several goroutines must
// serialize commands and store mutations themselves.
package highlight

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/amirrezaask/highlight/graph"
	"github.com/amirrezaask/highlight/set"
)

type Registry struct {
	body        *graph.Body
	highlighted map[graph.ID]graph.Node
	logger      *slog.Logger
	metrics     *Metrics
	off         func()
}

type Option func(*Registry)

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates a registry bound to body. Reconciliation is subscribed to the
// body's change event before New returns.
func New(body *graph.Body, opts ...Option) *Registry {
	r := &Registry{
		body:        body,
		highlighted: map[graph.ID]graph.Node{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.off = body.Emitter().On(graph.EventDataChanged, func(...any) {
		r.Update()
	})
	return r
}

// Close detaches the registry from the graph store. Highlights are left as they are.
func (r *Registry) Close() {
	if r.off != nil {
		r.off()
		r.off = nil
	}
}

// HighlightObject turns the highlight on for obj and records it when obj is a
// graph.Node. It reports false, doing nothing, when obj is nil.
func (r *Registry) HighlightObject(obj graph.Highlightable) bool {
	if isNil(obj) {
		r.metrics.op("highlight_object", "noop")
		return false
	}
	obj.HighlightOn()
	r.add(obj)
	r.metrics.op("highlight_object", "ok")
	return true
}

// TurnHighlightOffForObject clears the highlight of obj if it has one and
// forgets it.
func (r *Registry) TurnHighlightOffForObject(obj graph.Highlightable) {
	if isNil(obj) || !obj.IsHighlighted() {
		r.metrics.op("highlight_off", "noop")
		return
	}
	obj.HighlightOff()
	r.remove(obj)
	r.metrics.op("highlight_off", "ok")
}

// TurnOffAllHighlights switches off every recorded node, including nodes that
// already left the graph store, and empties the set.
func (r *Registry) TurnOffAllHighlights() {
	for _, n := range r.highlighted {
		n.HighlightOff()
	}
	r.highlighted = map[graph.ID]graph.Node{}
	r.metrics.size(0)
	r.metrics.op("turn_off_all", "ok")
}

// HighlightedNodes returns the ids of the highlighted nodes, sorted.
func (r *Registry) HighlightedNodes() []graph.ID {
	ids := make([]graph.ID, 0, len(r.highlighted))
	for id := range r.highlighted {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *Registry) Snapshot() set.Set[graph.ID] {
	s := make(set.Set[graph.ID], len(r.highlighted))
	for id := range r.highlighted {
		s.Add(id)
	}
	return s
}

func (r *Registry) IsHighlighted(id graph.ID) bool {
	_, ok := r.highlighted[id]
	return ok
}

func (r *Registry) Count() int {
	return len(r.highlighted)
}

// HighlightNodes replaces the highlighted set with the nodes named by ids.
// ids must be a slice or array of node ids (strings or integers); anything
// else, nil included, fails with ErrInvalidArgument before any highlight is
// touched.
//
// Existing highlights are cleared first. Ids are then resolved in order and
// the first one missing from the graph store aborts with a *NotFoundError;
// nodes highlighted before it stay highlighted. On success exactly one redraw
// is requested.
func (r *Registry) HighlightNodes(ids any) error {
	parsed, err := parseIDs(ids)
	if err != nil {
		r.metrics.op("highlight_nodes", "invalid")
		return err
	}
	return r.HighlightIDs(parsed)
}

// HighlightIDs is HighlightNodes for callers that already hold typed ids. A
// nil slice is an empty sequence.
func (r *Registry) HighlightIDs(ids []graph.ID) error {
	r.TurnOffAllHighlights()

	for _, id := range ids {
		node, ok := r.body.Node(id)
		if !ok {
			r.logger.Warn("bulk highlight aborted", "id", id, "highlighted", len(r.highlighted))
			r.metrics.op("highlight_nodes", "not_found")
			return &NotFoundError{ID: id}
		}
		r.HighlightObject(node)
	}

	r.logger.Debug("bulk highlight applied", "count", len(ids))
	r.metrics.op("highlight_nodes", "ok")
	r.metrics.redraw()
	r.body.RequestRedraw()
	return nil
}

// Update drops every highlighted id whose node is no longer in the graph
// store and returns how many were dropped. The dropped nodes keep their own
// highlight flag. Calling Update again without a store change is a no-op.
func (r *Registry) Update() int {
	pruned := 0
	for id := range r.highlighted {
		if !r.body.HasNode(id) {
			delete(r.highlighted, id)
			pruned++
		}
	}
	if pruned > 0 {
		r.logger.Debug("pruned stale highlights", "pruned", pruned, "remaining", len(r.highlighted))
	}
	r.metrics.pruned(pruned)
	r.metrics.size(len(r.highlighted))
	return pruned
}

func (r *Registry) add(obj graph.Highlightable) {
	if n, ok := obj.(graph.Node); ok {
		r.highlighted[n.NodeID()] = n
		r.metrics.size(len(r.highlighted))
	}
}

func (r *Registry) remove(obj graph.Highlightable) {
	if n, ok := obj.(graph.Node); ok {
		delete(r.highlighted, n.NodeID())
		r.metrics.size(len(r.highlighted))
	}
}

func parseIDs(ids any) ([]graph.ID, error) {
	switch v := ids.(type) {
	case nil:
		return nil, fmt.Errorf("%w: got nil", ErrInvalidArgument)
	case []graph.ID:
		return v, nil
	case []string:
		out := make([]graph.ID, len(v))
		for i, s := range v {
			out[i] = graph.ID(s)
		}
		return out, nil
	}

	rv := reflect.ValueOf(ids)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidArgument, ids)
	}
	out := make([]graph.ID, rv.Len())
	for i := range out {
		id, err := graph.ParseID(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidArgument, i, err)
		}
		out[i] = id
	}
	return out, nil
}

// isNil reports whether h is nil or a typed nil pointer, the Go analogue of
// an undefined reference.
func isNil(h graph.Highlightable) bool {
	if h == nil {
		return true
	}
	rv := reflect.ValueOf(h)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
