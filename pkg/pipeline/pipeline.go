// Package pipeline runs the complete resolve → DOT → layout → HTML sequence
// behind both the CLI and the HTTP server.
//
// # Architecture
//
// One run processes one complete graph description:
//
//  1. Resolve: [graphctx.Resolve] defaults and cross-references the description
//  2. DOT: the DOT template is executed against the resolved context
//  3. Layout: a [render.Layouter] turns the DOT text into SVG
//  4. HTML: the page template is executed with the context, CSS and SVG
//
// The stages run strictly in sequence and every failure aborts the run. Only
// the layout stage is cached, keyed by the layout engine and the DOT text.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(cache, pipeline.Options{Engine: "exec", Logger: logger})
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, desc)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("page.html", []byte(result.HTML), 0644)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphpage/pkg/graphctx"
	"github.com/matzehuels/graphpage/pkg/render"
)

// Options configures a [Runner].
type Options struct {
	// Engine selects the layout engine: "exec" (default) or "graphviz".
	Engine string `json:"engine,omitempty" toml:"engine"`
	// LayoutProgram is the program run by the exec engine (default "dot").
	LayoutProgram string `json:"layout_program,omitempty" toml:"layout_program"`
	// TemplateDir overrides the embedded templates file by file.
	TemplateDir string `json:"template_dir,omitempty" toml:"template_dir"`
	// Refresh skips cache reads; fresh layouts are still written back.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// SetDefaults fills unset options.
func (o *Options) SetDefaults() {
	if o.Engine == "" {
		o.Engine = render.EngineExec
	}
	if o.Engine == render.EngineExec && o.LayoutProgram == "" {
		o.LayoutProgram = render.DefaultLayoutProgram
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Context is the resolved graph.
	Context *graphctx.Context

	// DOT is the intermediate graph description text.
	DOT string

	// SVG is the image returned by the layout engine, unmodified.
	SVG []byte

	// HTML is the final page.
	HTML string

	Stats Stats

	// LayoutCached reports whether the SVG came from the cache.
	LayoutCached bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	VertexCount int
	EdgeCount   int
	ResolveTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}
