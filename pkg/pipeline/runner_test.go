package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphpage/pkg/cache"
	"github.com/matzehuels/graphpage/pkg/errors"
	"github.com/matzehuels/graphpage/pkg/graphctx"
	"github.com/matzehuels/graphpage/pkg/render"
)

type fakeLayouter struct {
	calls int
	err   error
}

func (f *fakeLayouter) Name() string { return "fake" }

func (f *fakeLayouter) Layout(ctx context.Context, dot string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(`<?xml version="1.0"?><svg viewBox="0 0 1 1"></svg>`), nil
}

func newTestRunner(t *testing.T, c cache.Cache, l render.Layouter) *Runner {
	t.Helper()
	r, err := NewRunner(c, Options{Logger: log.New(&bytes.Buffer{})})
	require.NoError(t, err)
	r.Layouter = l
	return r
}

func decode(t *testing.T, src string) *graphctx.Description {
	t.Helper()
	d, err := graphctx.Decode(strings.NewReader(src))
	require.NoError(t, err)
	return d
}

const sample = `{"vertices": {"a": {}, "b": {"name": "B"}}, "edges": [{"from": "a", "to": "b"}]}`

func TestOptionsSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	assert.Equal(t, render.EngineExec, o.Engine)
	assert.Equal(t, render.DefaultLayoutProgram, o.LayoutProgram)

	o = Options{Engine: render.EngineGraphviz}
	o.SetDefaults()
	assert.Empty(t, o.LayoutProgram)
}

func TestNewRunner_InvalidEngine(t *testing.T) {
	_, err := NewRunner(nil, Options{Engine: "twopi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestExecute(t *testing.T) {
	l := &fakeLayouter{}
	r := newTestRunner(t, nil, l)

	result, err := r.Execute(context.Background(), decode(t, sample))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.VertexCount)
	assert.Equal(t, 1, result.Stats.EdgeCount)
	assert.True(t, result.Context.LinkVertices)
	assert.False(t, result.Context.LinkEdges)
	assert.Contains(t, result.DOT, `"a" -> "b"`)
	assert.True(t, bytes.HasPrefix(result.SVG, []byte("<?xml")))
	assert.Contains(t, result.HTML, `<figure class="graph"><svg`)
	assert.Contains(t, result.HTML, `<dt id="vertex-b">B</dt>`)
	assert.False(t, result.LayoutCached)
	assert.Equal(t, 1, l.calls)
}

func TestExecute_UnknownVertex(t *testing.T) {
	l := &fakeLayouter{}
	r := newTestRunner(t, nil, l)

	_, err := r.Execute(context.Background(), decode(t, `{"vertices": {"a": {}}, "edges": [{"from": "a", "to": "zz"}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownVertex))
	assert.Contains(t, err.Error(), "resolve:")
	assert.Zero(t, l.calls, "layout must not run after a resolve failure")
}

func TestExecute_LayoutFailure(t *testing.T) {
	l := &fakeLayouter{err: errors.New(errors.ErrCodeLayoutFailed, "dot exited 1")}
	r := newTestRunner(t, nil, l)

	result, err := r.Execute(context.Background(), decode(t, sample))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errors.ErrCodeLayoutFailed))
}

func TestExecute_LayoutCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	l := &fakeLayouter{}
	r := newTestRunner(t, fc, l)
	ctx := context.Background()

	first, err := r.Execute(ctx, decode(t, sample))
	require.NoError(t, err)
	assert.False(t, first.LayoutCached)

	second, err := r.Execute(ctx, decode(t, sample))
	require.NoError(t, err)
	assert.True(t, second.LayoutCached)
	assert.Equal(t, first.SVG, second.SVG)
	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, 1, l.calls)

	r.Refresh = true
	third, err := r.Execute(ctx, decode(t, sample))
	require.NoError(t, err)
	assert.False(t, third.LayoutCached)
	assert.Equal(t, 2, l.calls)
}

func TestExecute_Deterministic(t *testing.T) {
	r := newTestRunner(t, nil, &fakeLayouter{})
	d := decode(t, `{
		"vertices": {"z": {"text": "last"}, "m": {}, "a": {"name": "first"}},
		"edges": [{"from": "z", "to": "a"}, {"from": "a", "to": "m", "text": "t"}]
	}`)

	first, err := r.Execute(context.Background(), d)
	require.NoError(t, err)
	second, err := r.Execute(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, first.DOT, second.DOT)
	assert.Equal(t, first.HTML, second.HTML)
}
