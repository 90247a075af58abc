package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphpage/pkg/cache"
	"github.com/matzehuels/graphpage/pkg/graphctx"
	"github.com/matzehuels/graphpage/pkg/observability"
	"github.com/matzehuels/graphpage/pkg/render"
)

// Runner executes the pipeline with a fixed cache, layout engine and template
// set. It keeps no per-run state, so one Runner can serve concurrent runs as
// long as its Cache is safe for concurrent use.
type Runner struct {
	Cache     cache.Cache
	Layouter  render.Layouter
	Templates *render.Templates
	Logger    *log.Logger
	Refresh   bool
}

// NewRunner builds a runner from opts. If c is nil a NullCache is used; if
// opts.Logger is nil the default logger is used.
func NewRunner(c cache.Cache, opts Options) (*Runner, error) {
	opts.SetDefaults()

	layouter, err := render.NewLayouter(opts.Engine, opts.LayoutProgram)
	if err != nil {
		return nil, err
	}
	templates, err := render.LoadTemplates(opts.TemplateDir)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		Cache:     c,
		Layouter:  layouter,
		Templates: templates,
		Logger:    logger,
		Refresh:   opts.Refresh,
	}, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Resolve runs the first stage only.
func (r *Runner) Resolve(ctx context.Context, d *graphctx.Description) (*graphctx.Context, error) {
	start := time.Now()
	c, err := graphctx.Resolve(d)
	duration := time.Since(start)

	vertices, edges := len(d.Vertices), len(d.Edges)
	observability.Pipeline().OnResolveComplete(ctx, vertices, edges, duration, err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("resolved context",
		"vertices", vertices,
		"edges", edges,
		"link_vertices", c.LinkVertices,
		"link_edges", c.LinkEdges,
		"duration", duration)
	return c, nil
}

// Execute runs the complete pipeline on d.
func (r *Runner) Execute(ctx context.Context, d *graphctx.Description) (*Result, error) {
	result := &Result{}

	// Stage 1: Resolve
	start := time.Now()
	c, err := r.Resolve(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Context = c
	result.Stats.VertexCount = len(c.Vertices)
	result.Stats.EdgeCount = len(c.Edges)
	result.Stats.ResolveTime = time.Since(start)

	// Stage 2: DOT
	dot, err := r.Templates.DOT(c)
	if err != nil {
		return nil, fmt.Errorf("dot: %w", err)
	}
	result.DOT = dot

	// Stage 3: Layout
	start = time.Now()
	svg, cached, err := r.Layout(ctx, dot)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.SVG = svg
	result.LayoutCached = cached
	result.Stats.LayoutTime = time.Since(start)

	r.Logger.Info("computed layout",
		"engine", r.Layouter.Name(),
		"cached", cached,
		"bytes", len(svg),
		"duration", result.Stats.LayoutTime)

	// Stage 4: HTML
	start = time.Now()
	html, err := r.Templates.HTML(c, svg)
	result.Stats.RenderTime = time.Since(start)
	observability.Pipeline().OnRenderComplete(ctx, len(html), result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}
	result.HTML = html

	return result, nil
}

// Layout returns the SVG for dot, consulting the cache first unless the runner
// was built with Refresh. Cache failures are logged and otherwise ignored.
func (r *Runner) Layout(ctx context.Context, dot string) ([]byte, bool, error) {
	engine := r.Layouter.Name()
	key := cache.LayoutKey(engine, dot)
	hooks := observability.Cache()

	observability.Pipeline().OnLayoutStart(ctx, engine)
	start := time.Now()

	if !r.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		if err == nil && hit {
			hooks.OnCacheHit(ctx, cache.PrefixLayout)
			observability.Pipeline().OnLayoutComplete(ctx, engine, true, time.Since(start), nil)
			return data, true, nil
		}
		hooks.OnCacheMiss(ctx, cache.PrefixLayout)
	}

	svg, err := r.Layouter.Layout(ctx, dot)
	observability.Pipeline().OnLayoutComplete(ctx, engine, false, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, svg, cache.DefaultTTL); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, cache.PrefixLayout, len(svg))
	}
	return svg, false, nil
}
