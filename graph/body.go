// Package graph holds the authoritative node and edge collections of a
// visualization together with the event bus that announces changes to them.
package graph

import (
	"slices"
	"sync"

	"github.com/amirrezaask/highlight/emitter"
)

const (
	EventDataChanged   = "_dataChanged"
	EventRequestRedraw = "_requestRedraw"
)

// Body is the graph store. Put and Delete only touch the data; listeners of
// EventDataChanged are told about it by Commit, so a batch of changes produces
// a single notification.
type Body struct {
	mu    sync.RWMutex
	nodes map[ID]Node
	edges map[ID]*Edge
	bus   *emitter.Emitter
}

func NewBody() *Body {
	return &Body{
		nodes: map[ID]Node{},
		edges: map[ID]*Edge{},
		bus:   emitter.New(),
	}
}

func (b *Body) Emitter() *emitter.Emitter { return b.bus }

func (b *Body) Node(id ID) (Node, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.nodes[id]
	return n, ok
}

func (b *Body) HasNode(id ID) bool {
	_, ok := b.Node(id)
	return ok
}

// NodeIDs returns the ids of every node, sorted.
func (b *Body) NodeIDs() []ID {
	b.mu.RLock()
	ids := make([]ID, 0, len(b.nodes))
	for id := range b.nodes {
		ids = append(ids, id)
	}
	b.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (b *Body) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.nodes)
}

func (b *Body) Edges() []*Edge {
	b.mu.RLock()
	edges := make([]*Edge, 0, len(b.edges))
	for _, e := range b.edges {
		edges = append(edges, e)
	}
	b.mu.RUnlock()
	slices.SortFunc(edges, func(x, y *Edge) int {
		switch {
		case x.id < y.id:
			return -1
		case x.id > y.id:
			return 1
		}
		return 0
	})
	return edges
}

// Put inserts or replaces nodes by id.
func (b *Body) Put(nodes ...Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range nodes {
		if n == nil {
			continue
		}
		b.nodes[n.NodeID()] = n
	}
}

func (b *Body) PutEdge(e *Edge) {
	if e == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.edges[e.id] = e
}

// Delete removes nodes and the edges touching them. It returns how many nodes
// were actually present.
func (b *Body) Delete(ids ...ID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if _, ok := b.nodes[id]; !ok {
			continue
		}
		delete(b.nodes, id)
		removed++
		for eid, e := range b.edges {
			if e.From == id || e.To == id {
				delete(b.edges, eid)
			}
		}
	}
	return removed
}

// Clear drops every node and edge without notifying.
func (b *Body) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = map[ID]Node{}
	b.edges = map[ID]*Edge{}
}

// Commit announces that the collections changed. Listeners run synchronously
// before Commit returns.
func (b *Body) Commit() {
	b.bus.Emit(EventDataChanged)
}

func (b *Body) Add(nodes ...Node) {
	b.Put(nodes...)
	b.Commit()
}

func (b *Body) Remove(ids ...ID) int {
	n := b.Delete(ids...)
	b.Commit()
	return n
}

func (b *Body) RequestRedraw() {
	b.bus.Emit(EventRequestRedraw)
}
