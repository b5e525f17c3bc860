package graph

// Highlightable is anything drawn on the canvas that can be visually emphasised.
type Highlightable interface {
	HighlightOn()
	HighlightOff()
	IsHighlighted() bool
}

// Node is a Highlightable that is addressed by a node id. Only values
// satisfying Node are tracked by a highlight registry.
type Node interface {
	Highlightable
	NodeID() ID
}

type Vertex struct {
	id          ID
	Label       string
	highlighted bool
}

func NewVertex(id ID, label string) *Vertex {
	return &Vertex{id: id, Label: label}
}

func (v *Vertex) NodeID() ID          { return v.id }
func (v *Vertex) HighlightOn()        { v.highlighted = true }
func (v *Vertex) HighlightOff()       { v.highlighted = false }
func (v *Vertex) IsHighlighted() bool { return v.highlighted }

// Edge connects two vertices. It can be highlighted but is not a Node.
type Edge struct {
	id          ID
	From        ID
	To          ID
	highlighted bool
}

func NewEdge(id, from, to ID) *Edge {
	return &Edge{id: id, From: from, To: to}
}

func (e *Edge) EdgeID() ID          { return e.id }
func (e *Edge) HighlightOn()        { e.highlighted = true }
func (e *Edge) HighlightOff()       { e.highlighted = false }
func (e *Edge) IsHighlighted() bool { return e.highlighted }
