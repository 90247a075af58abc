package graphctx

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/graphpage/pkg/errors"
)

// Top-level keys of a graph description.
const (
	keyVertices         = "vertices"
	keyEdges            = "edges"
	keyVertexGraphLabel = "vertex_graph_label"
	keyVertexListLabel  = "vertex_list_label"
	keyVertexEdgeLabel  = "vertex_edge_label"
	keyLinkVertices     = "link_vertices"
	keyLinkEdges        = "link_edges"
)

// Attrs is an arbitrary attribute record attached to a vertex or edge.
// Numbers decode as [json.Number] so they survive a round trip unchanged.
type Attrs map[string]any

// Option is a value that remembers whether its key appeared in the input.
// Present with a nil Value is an explicit JSON null.
type Option[T any] struct {
	Present bool
	Value   *T
}

// Some returns a present option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{Present: true, Value: &v}
}

// Null returns a present option holding an explicit null.
func Null[T any]() Option[T] {
	return Option[T]{Present: true}
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the key
// is present, which is what makes presence observable.
func (o *Option[T]) UnmarshalJSON(b []byte) error {
	o.Present = true
	o.Value = nil
	if isNull(b) {
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Description is a raw, partially defaulted graph description as read from
// JSON. It is never modified by [Resolve].
type Description struct {
	Vertices map[string]Attrs
	Edges    []Attrs

	VertexGraphLabel Option[string]
	VertexListLabel  Option[string]
	VertexEdgeLabel  Option[string]

	// LinkVertices and LinkEdges are tri-state: nil means infer.
	LinkVertices *bool
	LinkEdges    *bool

	// Extra holds every other top-level key (a page title, for instance).
	// It is passed through to the templates untouched.
	Extra Attrs
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Description) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New(errors.ErrCodeInvalidInput, "graph description must be a JSON object")
	}

	out := Description{}
	for _, key := range []string{keyVertices, keyEdges} {
		if _, ok := raw[key]; !ok {
			return errors.New(errors.ErrCodeInvalidInput, "missing %q", key)
		}
	}

	fields := map[string]any{
		keyVertices:         &out.Vertices,
		keyEdges:            &out.Edges,
		keyVertexGraphLabel: &out.VertexGraphLabel,
		keyVertexListLabel:  &out.VertexListLabel,
		keyVertexEdgeLabel:  &out.VertexEdgeLabel,
		keyLinkVertices:     &out.LinkVertices,
		keyLinkEdges:        &out.LinkEdges,
	}
	for key, msg := range raw {
		dst, known := fields[key]
		if !known {
			var v any
			if err := decodeNumbers(msg, &v); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "field %q", key)
			}
			if out.Extra == nil {
				out.Extra = Attrs{}
			}
			out.Extra[key] = v
			continue
		}
		if err := decodeNumbers(msg, dst); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "field %q", key)
		}
	}

	*d = out
	return nil
}

// Decode reads a graph description from r.
func Decode(r io.Reader) (*Description, error) {
	var d Description
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode graph description")
	}
	// The document must be a single JSON value.
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "trailing data after graph description")
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "trailing data after graph description: %v", tok)
	}
	return &d, nil
}

// DecodeFile reads a graph description from the JSON file at path.
func DecodeFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func decodeNumbers(b []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(dst)
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
