// Package feed applies graph mutations that arrive from outside the process,
// over Redis pub/sub or RabbitMQ, to a graph store.
package feed

import (
	"context"

	"github.com/amirrezaask/highlight/errors"
	"github.com/amirrezaask/highlight/graph"
	"github.com/amirrezaask/highlight/set"
	jsoniter "github.com/json-iterator/go"
)

// JSON keeps numbers as json.Number so integer ids above 2^53 reach
// graph.ParseID intact.
var JSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
)

type NodeSpec struct {
	ID    any    `json:"id"`
	Label string `json:"label,omitempty"`
}

type EdgeSpec struct {
	ID   any `json:"id"`
	From any `json:"from"`
	To   any `json:"to"`
}

// Mutation is one change to the graph store, e.g.
//
//	{"op":"add","nodes":[{"id":"a","label":"A"}],"edges":[{"id":"ab","from":"a","to":"b"}]}
//	{"op":"remove","ids":["a",7]}
//	{"op":"clear"}
type Mutation struct {
	Op    Op         `json:"op"`
	Nodes []NodeSpec `json:"nodes,omitempty"`
	Edges []EdgeSpec `json:"edges,omitempty"`
	IDs   []any      `json:"ids,omitempty"`
}

// Applier receives decoded mutations. Implementations decide how mutations
// are serialized against other users of the graph store.
type Applier func(ctx context.Context, m Mutation) error

// Source delivers mutations to an Applier until ctx is done.
type Source interface {
	Run(ctx context.Context, apply Applier) error
}

func Decode(payload []byte) (Mutation, error) {
	var m Mutation
	if err := JSON.Unmarshal(payload, &m); err != nil {
		return Mutation{}, errors.E(errors.KindInvalidArgument, "cannot decode graph mutation: %w", err)
	}
	switch m.Op {
	case OpAdd, OpRemove, OpClear:
	default:
		return Mutation{}, errors.E(errors.KindInvalidArgument, "unknown graph mutation op %q", m.Op)
	}
	return m, nil
}

// ApplyTo performs the mutation on body and commits once, so listeners see a
// single change notification per mutation. Nothing is changed when any id in
// the mutation is malformed. Adding a node whose id is already present, in
// the store or earlier in the same mutation, keeps the first node and its
// highlight.
func (m Mutation) ApplyTo(body *graph.Body) error {
	switch m.Op {
	case OpAdd:
		nodes := make([]graph.Node, 0, len(m.Nodes))
		seen := set.New[graph.ID]()
		for _, spec := range m.Nodes {
			id, err := graph.ParseID(spec.ID)
			if err != nil {
				return errors.Wrap(err, "node spec")
			}
			if body.HasNode(id) || seen.Exists(id) {
				continue
			}
			seen.Add(id)
			nodes = append(nodes, graph.NewVertex(id, spec.Label))
		}
		edges := make([]*graph.Edge, 0, len(m.Edges))
		for _, spec := range m.Edges {
			e, err := spec.edge()
			if err != nil {
				return err
			}
			edges = append(edges, e)
		}
		body.Put(nodes...)
		for _, e := range edges {
			body.PutEdge(e)
		}
	case OpRemove:
		ids := make([]graph.ID, 0, len(m.IDs))
		for _, raw := range m.IDs {
			id, err := graph.ParseID(raw)
			if err != nil {
				return errors.Wrap(err, "remove")
			}
			ids = append(ids, id)
		}
		body.Delete(ids...)
	case OpClear:
		body.Clear()
	default:
		return errors.E(errors.KindInvalidArgument, "unknown graph mutation op %q", m.Op)
	}

	body.Commit()
	return nil
}

func (s EdgeSpec) edge() (*graph.Edge, error) {
	id, err := graph.ParseID(s.ID)
	if err != nil {
		return nil, errors.Wrap(err, "edge id")
	}
	from, err := graph.ParseID(s.From)
	if err != nil {
		return nil, errors.Wrap(err, "edge %s from", id)
	}
	to, err := graph.ParseID(s.To)
	if err != nil {
		return nil, errors.Wrap(err, "edge %s to", id)
	}
	return graph.NewEdge(id, from, to), nil
}
