// Package test holds fixtures shared by the package tests.
package test

import (
	"math/rand/v2"

	"github.com/amirrezaask/highlight/graph"
	"github.com/brianvoe/gofakeit/v7"
)

func Fakery() *gofakeit.Faker {
	return gofakeit.New(0)
}

func RandomElement[T any](list ...T) T {
	i := rand.IntN(len(list))
	return list[i]
}

// NodeIDs returns n distinct ids made of fake words and numbers.
func NodeIDs(f *gofakeit.Faker, n int) []graph.ID {
	seen := map[graph.ID]struct{}{}
	ids := make([]graph.ID, 0, n)
	for len(ids) < n {
		var id graph.ID
		if f.Bool() {
			id = graph.ID(f.Word() + "-" + f.LetterN(4))
		} else {
			id, _ = graph.ParseID(f.Number(1, 1_000_000))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Body builds a graph store holding one vertex per id.
func Body(ids ...graph.ID) *graph.Body {
	b := graph.NewBody()
	for _, id := range ids {
		b.Put(graph.NewVertex(id, string(id)))
	}
	return b
}

// Vertex returns the vertex stored under id, or nil.
func Vertex(b *graph.Body, id graph.ID) *graph.Vertex {
	n, ok := b.Node(id)
	if !ok {
		return nil
	}
	v, _ := n.(*graph.Vertex)
	return v
}
