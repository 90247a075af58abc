package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphpage/pkg/graphctx"
	"github.com/matzehuels/graphpage/pkg/sink"
)

func (c *CLI) resolveCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <input.json>",
		Short: "Print the resolved context as JSON",
		Long: `Resolve applies label defaults and link inference to a graph description and
prints the result, with every edge endpoint expanded to its vertex record.
No layout is run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output (path, - for stdout, or s3://bucket/key)")
	return cmd
}

func (c *CLI) runResolve(ctx context.Context, input, output string) error {
	d, err := readDescription(input)
	if err != nil {
		return err
	}
	resolved, err := graphctx.Resolve(d)
	if err != nil {
		return err
	}
	c.Logger.Debug("resolved context",
		"vertices", len(resolved.Vertices),
		"edges", len(resolved.Edges),
		"link_vertices", resolved.LinkVertices,
		"link_edges", resolved.LinkEdges)

	data, err := marshalContext(resolved)
	if err != nil {
		return err
	}
	w, err := sink.Open(output, c.Config.S3)
	if err != nil {
		return err
	}
	if err := w.Write(ctx, data); err != nil {
		return err
	}
	if output != "-" {
		printFile(w.String())
	}
	return nil
}
