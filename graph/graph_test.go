package graph

import (
	"encoding/json"
	"testing"

	"github.com/amirrezaask/highlight/errors"
	"github.com/matryer/is"
)

func TestParseID(t *testing.T) {
	tcs := []struct {
		name string
		in   any
		want ID
	}{
		{"string", "a", "a"},
		{"id", ID("b"), "b"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint8", uint8(9), "9"},
		{"json float", float64(12), "12"},
		{"json number", json.Number("13"), "13"},
		{"json number above 2^53", json.Number("9007199254740993"), "9007199254740993"},
		{"json number above int64", json.Number("18446744073709551615"), "18446744073709551615"},
		{"json number with exponent", json.Number("3e2"), "300"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			got, err := ParseID(tc.in)
			is.NoErr(err)
			is.Equal(got, tc.want)
		})
	}
}

func TestParseIDRejects(t *testing.T) {
	for _, in := range []any{nil, 1.5, true, []string{"a"}, map[string]int{}, json.Number("1.2")} {
		is := is.New(t)
		_, err := ParseID(in)
		is.True(err != nil)
		is.Equal(errors.KindOf(err), errors.KindInvalidArgument)
	}
}

func TestVertexIsNodeEdgeIsNot(t *testing.T) {
	is := is.New(t)
	var v Highlightable = NewVertex("a", "A")
	var e Highlightable = NewEdge("e1", "a", "b")

	_, ok := v.(Node)
	is.True(ok)
	_, ok = e.(Node)
	is.True(!ok)

	e.HighlightOn()
	is.True(e.IsHighlighted())
	e.HighlightOff()
	is.True(!e.IsHighlighted())
}

func TestBodyPutDeleteCommit(t *testing.T) {
	is := is.New(t)
	b := NewBody()
	var changes int
	b.Emitter().On(EventDataChanged, func(...any) { changes++ })

	b.Put(NewVertex("a", ""), NewVertex("b", ""), nil)
	b.PutEdge(NewEdge("ab", "a", "b"))
	is.Equal(changes, 0)
	is.Equal(b.Len(), 2)
	is.Equal(b.NodeIDs(), []ID{"a", "b"})
	is.Equal(len(b.Edges()), 1)

	is.Equal(b.Delete("a", "missing"), 1)
	is.True(!b.HasNode("a"))
	is.Equal(len(b.Edges()), 0) // incident edge dropped
	is.Equal(changes, 0)

	b.Commit()
	is.Equal(changes, 1)

	b.Add(NewVertex("c", ""), NewVertex("d", ""))
	is.Equal(changes, 2)
	is.Equal(b.Remove("c", "d"), 2)
	is.Equal(changes, 3)
	is.Equal(b.NodeIDs(), []ID{"b"})
}

func TestBodyRequestRedraw(t *testing.T) {
	is := is.New(t)
	b := NewBody()
	var redraws int
	b.Emitter().On(EventRequestRedraw, func(...any) { redraws++ })
	b.RequestRedraw()
	is.Equal(redraws, 1)
}

func TestBodyClear(t *testing.T) {
	is := is.New(t)
	b := NewBody()
	b.Put(NewVertex("a", ""))
	b.PutEdge(NewEdge("aa", "a", "a"))
	b.Clear()
	is.Equal(b.Len(), 0)
	is.Equal(len(b.Edges()), 0)
}
