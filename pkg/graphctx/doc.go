// Package graphctx resolves a loosely specified graph description into a fully
// defaulted, cross-referenced rendering context.
//
// # Overview
//
// A graph description is a JSON document with a vertex mapping, an ordered edge
// list and a handful of graph-wide display options:
//
//	{
//	  "vertices": {"a": {}, "b": {"name": "B", "text": "Backend service"}},
//	  "edges": [{"from": "a", "to": "b"}],
//	  "vertex_list_label": "name",
//	  "link_edges": false
//	}
//
// [Resolve] turns a [Description] into a [Context] in which:
//
//   - every vertex has an id (its key), a name (defaults to the id) and a
//     boolean link flag
//   - every edge has a 1-based id, a boolean link flag, and endpoints that
//     point at the resolved [Vertex] values
//   - the three label options are defaulted ("id", "name", "id")
//   - link_vertices and link_edges are concrete booleans
//
// # Link Inference
//
// The link flag decides whether an element gets a detail entry in the output
// page. An explicit link_vertices / link_edges wins for every element. When a
// flag is unset (absent or null) it is inferred per element:
//
//   - vertex: the vertex carries its vertex_list_label field or a text field
//   - edge: vertex_edge_label is not "id", or the edge carries a text field
//
// The two rules are deliberately not symmetric. The vertex rule checks whether
// a field is present; the edge rule checks which field is used to describe
// endpoints, since anything other than the id already adds information to the
// edge list. The graph-wide flag then becomes true if any element inferred true.
//
// # Sharing
//
// [Edge.From] and [Edge.To] are handles into [Context.Vertices], not copies.
// Updating a vertex after resolution is observable through every edge that
// touches it.
//
// # Purity
//
// Resolve never mutates its input. Resolving the same [Description] twice
// yields two independent, equal contexts.
package graphctx
