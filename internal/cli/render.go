package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphpage/pkg/errors"
	"github.com/matzehuels/graphpage/pkg/graphctx"
	"github.com/matzehuels/graphpage/pkg/pipeline"
	"github.com/matzehuels/graphpage/pkg/sink"
)

// renderOpts holds the output targets of the render command. Each target is
// a path, "-" for stdout, or an s3://bucket/key URL.
type renderOpts struct {
	output     string // HTML page (required)
	outDOT     string // intermediate DOT text
	outSVG     string // SVG as returned by the layout engine
	outContext string // resolved context as JSON
	pipeline   pipelineFlags
}

// artifact is one output of a render run.
type artifact struct {
	target string
	data   []byte
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <input.json>",
		Short: "Render a graph description to an HTML page",
		Long: `Render resolves the graph description, lays it out with Graphviz and writes an
HTML page embedding the SVG. Use "-" as input to read from stdin.`,
		Example: `  graphpage render graph.json -o graph.html
  graphpage render graph.json -o graph.html --out-svg graph.svg --out-context context.json
  graphpage render graph.json -o s3://docs/graphs/graph.html --engine graphviz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := opts.pipeline.options(cmd.Flags(), c.Config.Pipeline)
			return c.runRender(cmd.Context(), args[0], &opts, popts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "HTML output (path, - for stdout, or s3://bucket/key)")
	cmd.Flags().StringVar(&opts.outDOT, "out-dot", "", "also write the DOT text")
	cmd.Flags().StringVar(&opts.outSVG, "out-svg", "", "also write the SVG")
	cmd.Flags().StringVar(&opts.outContext, "out-context", "", "also write the resolved context as JSON")
	opts.pipeline.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts, popts pipeline.Options) error {
	prog := newProgress(c.Logger)

	d, err := readDescription(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded description", "input", input, "vertices", len(d.Vertices), "edges", len(d.Edges))

	runner, err := c.newRunner(ctx, popts, opts.pipeline.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinnerWithContext(ctx, "Rendering "+input)
	if c.Logger.GetLevel() > LogDebug {
		spin.Start()
	}
	result, err := runner.Execute(ctx, d)
	if c.Logger.GetLevel() > LogDebug {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	artifacts, err := renderArtifacts(result, opts)
	if err != nil {
		return err
	}

	var written []string
	for _, a := range artifacts {
		w, err := sink.Open(a.target, c.Config.S3)
		if err != nil {
			return err
		}
		if err := w.Write(ctx, a.data); err != nil {
			return err
		}
		written = append(written, w.String())
	}

	prog.done(fmt.Sprintf("Wrote %d artifacts", len(written)))
	printSuccess("Rendered %s", input)
	printStats(result.Stats.VertexCount, result.Stats.EdgeCount,
		len(result.Context.LinkedVertices())+len(result.Context.LinkedEdges()), result.LayoutCached)
	for _, target := range written {
		printFile(target)
	}
	return nil
}

// renderArtifacts lists the requested outputs, the HTML page first.
func renderArtifacts(result *pipeline.Result, opts *renderOpts) ([]artifact, error) {
	artifacts := []artifact{{target: opts.output, data: []byte(result.HTML)}}
	if opts.outDOT != "" {
		artifacts = append(artifacts, artifact{target: opts.outDOT, data: []byte(result.DOT)})
	}
	if opts.outSVG != "" {
		artifacts = append(artifacts, artifact{target: opts.outSVG, data: result.SVG})
	}
	if opts.outContext != "" {
		data, err := marshalContext(result.Context)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact{target: opts.outContext, data: data})
	}
	return artifacts, nil
}

// readDescription decodes the description at path, or stdin for "-".
func readDescription(path string) (*graphctx.Description, error) {
	if path == "-" {
		return graphctx.Decode(os.Stdin)
	}
	return graphctx.DecodeFile(path)
}

func marshalContext(c *graphctx.Context) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode context")
	}
	return append(data, '\n'), nil
}
