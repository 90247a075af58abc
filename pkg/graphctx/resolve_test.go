package graphctx

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphpage/pkg/errors"
)

func mustDecode(t *testing.T, src string) *Description {
	t.Helper()
	d, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	return d
}

func mustResolve(t *testing.T, src string) *Context {
	t.Helper()
	c, err := Resolve(mustDecode(t, src))
	require.NoError(t, err)
	return c
}

func vertex(t *testing.T, c *Context, id string) *Vertex {
	t.Helper()
	v, ok := c.Vertex(id)
	require.True(t, ok, "vertex %q not found", id)
	return v
}

func boolPtr(b bool) *bool { return &b }

func TestResolve_Scenario(t *testing.T) {
	c := mustResolve(t, `{"vertices": {"a": {}, "b": {"name": "B"}}, "edges": [{"from": "a", "to": "b"}]}`)

	a := vertex(t, c, "a")
	assert.Equal(t, "a", a.ID)
	assert.Equal(t, "a", a.Name)
	assert.False(t, a.Link)

	b := vertex(t, c, "b")
	assert.Equal(t, "b", b.ID)
	assert.Equal(t, "B", b.Name)
	assert.True(t, b.Link)

	require.Len(t, c.Edges, 1)
	e := c.Edges[0]
	assert.Equal(t, 1, e.ID)
	assert.Same(t, a, e.From)
	assert.Same(t, b, e.To)
	assert.False(t, e.Link)

	assert.True(t, c.LinkVertices)
	assert.False(t, c.LinkEdges)
	assert.Equal(t, "id", *c.VertexGraphLabel)
	assert.Equal(t, "name", *c.VertexListLabel)
	assert.Equal(t, "id", *c.VertexEdgeLabel)
}

func TestResolve_IdentityAndOrder(t *testing.T) {
	c := mustResolve(t, `{
		"vertices": {"zeta": {}, "alpha": {}, "mid": {"id": "ignored"}},
		"edges": [
			{"from": "zeta", "to": "alpha", "id": 99},
			{"from": "alpha", "to": "mid"},
			{"from": "mid", "to": "zeta"}
		]
	}`)

	for _, v := range c.Vertices {
		got, _ := v.Field(FieldID)
		assert.Equal(t, v.ID, got)
	}
	assert.Equal(t, "mid", vertex(t, c, "mid").ID)

	var ids []string
	for _, v := range c.Vertices {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, ids)

	for i, e := range c.Edges {
		assert.Equal(t, i+1, e.ID)
		got, _ := e.Field(FieldID)
		assert.Equal(t, i+1, got)
	}
	assert.Equal(t, "zeta", c.Edges[0].From.ID)
	assert.Equal(t, "zeta", c.Edges[2].To.ID)
}

func TestResolve_NameDefaulting(t *testing.T) {
	c := mustResolve(t, `{
		"vertices": {"a": {}, "b": {"name": "Bee"}, "c": {"name": null}, "d": {"name": 7}},
		"edges": []
	}`)

	assert.Equal(t, "a", vertex(t, c, "a").Name)
	assert.Equal(t, "Bee", vertex(t, c, "b").Name)
	assert.Equal(t, "c", vertex(t, c, "c").Name)
	assert.Equal(t, json.Number("7"), vertex(t, c, "d").Name)
}

func TestResolve_VertexLinkInference(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantLinks map[string]bool
		wantGraph bool
	}{
		{
			name:      "name or text present",
			src:       `{"vertices": {"a": {"name": "A"}, "b": {"text": "about b"}, "c": {}}, "edges": []}`,
			wantLinks: map[string]bool{"a": true, "b": true, "c": false},
			wantGraph: true,
		},
		{
			name:      "null fields count as absent",
			src:       `{"vertices": {"a": {"name": null, "text": null}}, "edges": []}`,
			wantLinks: map[string]bool{"a": false},
			wantGraph: false,
		},
		{
			name:      "list label never present",
			src:       `{"vertices": {"a": {"name": "A"}, "b": {}}, "edges": [], "vertex_list_label": "title"}`,
			wantLinks: map[string]bool{"a": false, "b": false},
			wantGraph: false,
		},
		{
			name:      "list label falls back to text",
			src:       `{"vertices": {"a": {"text": "x"}, "b": {}}, "edges": [], "vertex_list_label": "title"}`,
			wantLinks: map[string]bool{"a": true, "b": false},
			wantGraph: true,
		},
		{
			name:      "list label id is always present",
			src:       `{"vertices": {"a": {}, "b": {}}, "edges": [], "vertex_list_label": "id"}`,
			wantLinks: map[string]bool{"a": true, "b": true},
			wantGraph: true,
		},
		{
			name:      "null list label",
			src:       `{"vertices": {"a": {"name": "A"}}, "edges": [], "vertex_list_label": null}`,
			wantLinks: map[string]bool{"a": false},
			wantGraph: false,
		},
		{
			name:      "explicit false wins",
			src:       `{"vertices": {"a": {"name": "A", "text": "t"}}, "edges": [], "link_vertices": false}`,
			wantLinks: map[string]bool{"a": false},
			wantGraph: false,
		},
		{
			name:      "explicit true wins",
			src:       `{"vertices": {"a": {}}, "edges": [], "link_vertices": true}`,
			wantLinks: map[string]bool{"a": true},
			wantGraph: true,
		},
		{
			name:      "null flag means infer",
			src:       `{"vertices": {"a": {"text": "t"}}, "edges": [], "link_vertices": null}`,
			wantLinks: map[string]bool{"a": true},
			wantGraph: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustResolve(t, tt.src)
			for id, want := range tt.wantLinks {
				assert.Equal(t, want, vertex(t, c, id).Link, "vertex %q", id)
			}
			assert.Equal(t, tt.wantGraph, c.LinkVertices)
		})
	}
}

func TestResolve_EdgeLinkInference(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantLinks []bool
		wantGraph bool
	}{
		{
			name:      "id label without text",
			src:       `{"vertices": {"a": {}, "b": {}}, "edges": [{"from": "a", "to": "b"}]}`,
			wantLinks: []bool{false},
			wantGraph: false,
		},
		{
			name:      "id label with text",
			src:       `{"vertices": {"a": {}, "b": {}}, "edges": [{"from": "a", "to": "b", "text": "t"}, {"from": "b", "to": "a"}]}`,
			wantLinks: []bool{true, false},
			wantGraph: true,
		},
		{
			name:      "other label links every edge",
			src:       `{"vertices": {"a": {}, "b": {}}, "edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "a", "text": "t"}], "vertex_edge_label": "weight"}`,
			wantLinks: []bool{true, true},
			wantGraph: true,
		},
		{
			name:      "null label is not id",
			src:       `{"vertices": {"a": {}}, "edges": [{"from": "a", "to": "a"}], "vertex_edge_label": null}`,
			wantLinks: []bool{true},
			wantGraph: true,
		},
		{
			name:      "explicit false wins",
			src:       `{"vertices": {"a": {}}, "edges": [{"from": "a", "to": "a", "text": "t"}], "vertex_edge_label": "name", "link_edges": false}`,
			wantLinks: []bool{false},
			wantGraph: false,
		},
		{
			name:      "explicit true wins",
			src:       `{"vertices": {"a": {}}, "edges": [{"from": "a", "to": "a"}], "link_edges": true}`,
			wantLinks: []bool{true},
			wantGraph: true,
		},
		{
			name:      "no edges",
			src:       `{"vertices": {}, "edges": []}`,
			wantLinks: []bool{},
			wantGraph: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustResolve(t, tt.src)
			got := make([]bool, len(c.Edges))
			for i, e := range c.Edges {
				got[i] = e.Link
			}
			assert.Equal(t, tt.wantLinks, got)
			assert.Equal(t, tt.wantGraph, c.LinkEdges)
		})
	}
}

func TestResolve_LabelDefaulting(t *testing.T) {
	c := mustResolve(t, `{"vertices": {}, "edges": [], "vertex_graph_label": "", "vertex_list_label": null, "vertex_edge_label": "weight"}`)

	require.NotNil(t, c.VertexGraphLabel)
	assert.Equal(t, "", *c.VertexGraphLabel)
	assert.Nil(t, c.VertexListLabel)
	assert.Equal(t, "weight", *c.VertexEdgeLabel)
}

func TestResolve_EndpointsShareVertices(t *testing.T) {
	c := mustResolve(t, `{"vertices": {"a": {}, "b": {}}, "edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "a"}]}`)

	a := vertex(t, c, "a")
	a.Name = "renamed"
	a.Link = true

	assert.Equal(t, "renamed", c.Edges[0].From.Name)
	assert.True(t, c.Edges[1].To.Link)
	assert.Same(t, c.Edges[0].From, c.Edges[1].To)
}

func TestResolve_EndpointErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{
			name: "unknown from",
			src:  `{"vertices": {"a": {}}, "edges": [{"from": "x", "to": "a"}]}`,
			code: errors.ErrCodeUnknownVertex,
		},
		{
			name: "unknown to",
			src:  `{"vertices": {"a": {}}, "edges": [{"from": "a", "to": "a"}, {"from": "a", "to": "y"}]}`,
			code: errors.ErrCodeUnknownVertex,
		},
		{
			name: "missing to",
			src:  `{"vertices": {"a": {}}, "edges": [{"from": "a"}]}`,
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "non-string from",
			src:  `{"vertices": {"1": {}}, "edges": [{"from": 1, "to": "1"}]}`,
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "null edge",
			src:  `{"vertices": {"a": {}}, "edges": [null]}`,
			code: errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Resolve(mustDecode(t, tt.src))
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	d := &Description{
		Vertices: map[string]Attrs{
			"a": {"text": "alpha"},
			"b": nil,
		},
		Edges: []Attrs{
			{"from": "a", "to": "b", "weight": 3},
		},
	}

	first, err := Resolve(d)
	require.NoError(t, err)
	second, err := Resolve(d)
	require.NoError(t, err)

	assert.Equal(t, Attrs{"text": "alpha"}, d.Vertices["a"])
	assert.Nil(t, d.Vertices["b"])
	assert.Equal(t, Attrs{"from": "a", "to": "b", "weight": 3}, d.Edges[0])
	assert.Nil(t, d.LinkVertices)
	assert.False(t, d.VertexListLabel.Present)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))

	a1, _ := first.Vertex("a")
	a2, _ := second.Vertex("a")
	assert.NotSame(t, a1, a2)
}

func TestResolve_ExplicitFlagsFromGo(t *testing.T) {
	d := &Description{
		Vertices:        map[string]Attrs{"a": {"name": "A"}},
		Edges:           []Attrs{{"from": "a", "to": "a", "text": "loop"}},
		VertexListLabel: Some("name"),
		LinkVertices:    boolPtr(false),
		LinkEdges:       boolPtr(false),
	}

	c, err := Resolve(d)
	require.NoError(t, err)

	assert.False(t, vertex(t, c, "a").Link)
	assert.False(t, c.Edges[0].Link)
	assert.False(t, c.LinkVertices)
	assert.False(t, c.LinkEdges)
}

func TestField(t *testing.T) {
	c := mustResolve(t, `{"vertices": {"a": {"link": "shadowed", "kind": "db", "gone": null}}, "edges": [{"from": "a", "to": "a", "weight": 2}]}`)
	v := vertex(t, c, "a")

	got, ok := v.Field("link")
	assert.True(t, ok)
	assert.Equal(t, false, got)

	got, ok = v.Field("kind")
	assert.True(t, ok)
	assert.Equal(t, "db", got)

	_, ok = v.Field("gone")
	assert.False(t, ok)

	e := c.Edges[0]
	got, ok = e.Field("from")
	assert.True(t, ok)
	assert.Same(t, v, got)

	got, ok = e.Field("weight")
	assert.True(t, ok)
	assert.Equal(t, json.Number("2"), got)

	_, ok = e.Field("text")
	assert.False(t, ok)
}

func TestLinkedSelections(t *testing.T) {
	c := mustResolve(t, `{
		"vertices": {"a": {"text": "x"}, "b": {}, "c": {"name": "C"}},
		"edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "c", "text": "y"}]
	}`)

	var vids []string
	for _, v := range c.LinkedVertices() {
		vids = append(vids, v.ID)
	}
	assert.Equal(t, []string{"a", "c"}, vids)

	linked := c.LinkedEdges()
	require.Len(t, linked, 1)
	assert.Equal(t, 2, linked[0].ID)
}
