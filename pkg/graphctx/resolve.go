package graphctx

import (
	"maps"
	"slices"

	"github.com/matzehuels/graphpage/pkg/errors"
)

// Label defaults applied when the option is absent from the input.
const (
	DefaultVertexGraphLabel = "id"
	DefaultVertexListLabel  = "name"
	DefaultVertexEdgeLabel  = "id"
)

// Resolve builds a [Context] from d. Labels are defaulted by presence, not by
// value: an explicit null or empty string is kept. Vertices are normalized
// before edges because edges dereference them.
//
// Resolve fails if an edge lacks a string from/to key or names a vertex that
// does not exist. It never modifies d.
func Resolve(d *Description) (*Context, error) {
	c := &Context{
		VertexGraphLabel: labelOrDefault(d.VertexGraphLabel, DefaultVertexGraphLabel),
		VertexListLabel:  labelOrDefault(d.VertexListLabel, DefaultVertexListLabel),
		VertexEdgeLabel:  labelOrDefault(d.VertexEdgeLabel, DefaultVertexEdgeLabel),
		Extra:            maps.Clone(d.Extra),
	}

	inferred := c.normalizeVertices(d.Vertices, d.LinkVertices)
	c.LinkVertices = flagOrInferred(d.LinkVertices, inferred)

	inferred, err := c.normalizeEdges(d.Edges, d.LinkEdges)
	if err != nil {
		return nil, err
	}
	c.LinkEdges = flagOrInferred(d.LinkEdges, inferred)

	return c, nil
}

// normalizeVertices fills the vertex table and reports whether any vertex
// inferred link=true. Nothing is inferred when link is explicit.
func (c *Context) normalizeVertices(in map[string]Attrs, link *bool) bool {
	c.Vertices = make([]*Vertex, 0, len(in))
	c.index = make(map[string]*Vertex, len(in))

	inferred := false
	for _, key := range slices.Sorted(maps.Keys(in)) {
		attrs := maps.Clone(in[key])
		if attrs == nil {
			attrs = Attrs{}
		}
		v := &Vertex{ID: key, Attrs: attrs}

		if link != nil {
			v.Link = *link
		} else {
			// id is assigned before the check, name and link are not.
			v.Link = hasVertexField(v, c.VertexListLabel) || present(attrs, FieldText)
			inferred = inferred || v.Link
		}

		v.Name = v.ID
		if present(attrs, FieldName) {
			v.Name = attrs[FieldName]
		}

		c.Vertices = append(c.Vertices, v)
		c.index[key] = v
	}
	return inferred
}

// normalizeEdges numbers the edges, resolves their endpoints against the
// vertex table and reports whether any edge inferred link=true.
func (c *Context) normalizeEdges(in []Attrs, link *bool) (bool, error) {
	c.Edges = make([]*Edge, 0, len(in))

	// Constant across the graph: only text presence varies per edge.
	describedByID := c.VertexEdgeLabel != nil && *c.VertexEdgeLabel == FieldID

	inferred := false
	for i, attrs := range in {
		e := &Edge{ID: i + 1}

		var err error
		if e.From, err = c.endpoint(e.ID, attrs, FieldFrom); err != nil {
			return false, err
		}
		if e.To, err = c.endpoint(e.ID, attrs, FieldTo); err != nil {
			return false, err
		}

		e.Attrs = maps.Clone(attrs)
		delete(e.Attrs, FieldFrom)
		delete(e.Attrs, FieldTo)

		if link != nil {
			e.Link = *link
		} else {
			e.Link = !describedByID || present(attrs, FieldText)
			inferred = inferred || e.Link
		}

		c.Edges = append(c.Edges, e)
	}
	return inferred, nil
}

func (c *Context) endpoint(edgeID int, attrs Attrs, field string) (*Vertex, error) {
	raw, ok := attrs[field]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "edge %d: missing %q", edgeID, field)
	}
	key, ok := raw.(string)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "edge %d: %q must be a vertex key, got %v", edgeID, field, raw)
	}
	v, ok := c.index[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownVertex, "edge %d: unknown vertex %q in %q", edgeID, key, field)
	}
	return v, nil
}

func hasVertexField(v *Vertex, label *string) bool {
	if label == nil {
		return false
	}
	if *label == FieldID {
		return true
	}
	return present(v.Attrs, *label)
}

func present(attrs Attrs, key string) bool {
	v, ok := attrs[key]
	return ok && v != nil
}

func labelOrDefault(o Option[string], def string) *string {
	if !o.Present {
		return &def
	}
	return o.Value
}

func flagOrInferred(flag *bool, inferred bool) bool {
	if flag != nil {
		return *flag
	}
	return inferred
}
