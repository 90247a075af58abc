package graphctx

import (
	"encoding/json"
	"maps"
)

// Synthesized field names.
const (
	FieldID   = "id"
	FieldName = "name"
	FieldLink = "link"
	FieldText = "text"
	FieldFrom = "from"
	FieldTo   = "to"
)

// Context is a fully resolved graph, ready for template substitution.
type Context struct {
	// Vertices is the vertex table, sorted by id.
	Vertices []*Vertex
	// Edges keeps the input order; Edges[i].ID == i+1.
	Edges []*Edge

	// The label options name the vertex field shown in the graph, in the
	// vertex list, and in edge descriptions. nil is an explicit null.
	VertexGraphLabel *string
	VertexListLabel  *string
	VertexEdgeLabel  *string

	LinkVertices bool
	LinkEdges    bool

	Extra Attrs

	index map[string]*Vertex
}

// Vertex returns the vertex with the given id.
func (c *Context) Vertex(id string) (*Vertex, bool) {
	v, ok := c.index[id]
	return v, ok
}

// LinkedVertices returns the vertices whose link flag is set, in table order.
func (c *Context) LinkedVertices() []*Vertex {
	var out []*Vertex
	for _, v := range c.Vertices {
		if v.Link {
			out = append(out, v)
		}
	}
	return out
}

// LinkedEdges returns the edges whose link flag is set, in input order.
func (c *Context) LinkedEdges() []*Edge {
	var out []*Edge
	for _, e := range c.Edges {
		if e.Link {
			out = append(out, e)
		}
	}
	return out
}

// MarshalJSON renders the context in the shape of its input: vertices keyed by
// id, every record flattened with its synthesized fields, and edge endpoints
// embedded as full vertex records.
func (c *Context) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+7)
	maps.Copy(out, c.Extra)

	vertices := make(map[string]map[string]any, len(c.Vertices))
	for _, v := range c.Vertices {
		vertices[v.ID] = v.record()
	}
	edges := make([]map[string]any, len(c.Edges))
	for i, e := range c.Edges {
		edges[i] = e.record()
	}

	out[keyVertices] = vertices
	out[keyEdges] = edges
	out[keyVertexGraphLabel] = c.VertexGraphLabel
	out[keyVertexListLabel] = c.VertexListLabel
	out[keyVertexEdgeLabel] = c.VertexEdgeLabel
	out[keyLinkVertices] = c.LinkVertices
	out[keyLinkEdges] = c.LinkEdges
	return json.Marshal(out)
}

// Vertex is a resolved vertex.
type Vertex struct {
	ID string
	// Name is the input name attribute, or ID when it was absent or null.
	Name  any
	Link  bool
	Attrs Attrs
}

// Field looks up a display field by name. Synthesized fields shadow input
// attributes of the same name. A null attribute counts as absent.
func (v *Vertex) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return v.ID, true
	case FieldName:
		return v.Name, true
	case FieldLink:
		return v.Link, true
	}
	val, ok := v.Attrs[name]
	return val, ok && val != nil
}

func (v *Vertex) record() map[string]any {
	out := make(map[string]any, len(v.Attrs)+3)
	maps.Copy(out, v.Attrs)
	out[FieldID] = v.ID
	out[FieldName] = v.Name
	out[FieldLink] = v.Link
	return out
}

// Edge is a resolved edge.
type Edge struct {
	ID   int
	From *Vertex
	To   *Vertex
	Link bool
	// Attrs holds the input attributes without from and to.
	Attrs Attrs
}

// Field looks up a display field by name. Synthesized fields shadow input
// attributes of the same name. A null attribute counts as absent.
func (e *Edge) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return e.ID, true
	case FieldLink:
		return e.Link, true
	case FieldFrom:
		return e.From, true
	case FieldTo:
		return e.To, true
	}
	val, ok := e.Attrs[name]
	return val, ok && val != nil
}

func (e *Edge) record() map[string]any {
	out := make(map[string]any, len(e.Attrs)+4)
	maps.Copy(out, e.Attrs)
	out[FieldID] = e.ID
	out[FieldFrom] = e.From.record()
	out[FieldTo] = e.To.record()
	out[FieldLink] = e.Link
	return out
}
