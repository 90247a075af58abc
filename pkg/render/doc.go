// Package render turns a resolved graph context into a DOT description, an SVG
// image and a standalone HTML page.
//
// # Stages
//
// Rendering runs three steps in sequence:
//
//	Context → Templates.DOT() → DOT → Layouter.Layout() → SVG → Templates.HTML() → HTML
//
// The DOT and HTML steps are template substitutions. Default templates are
// embedded in the binary and any of them can be replaced by dropping a file of
// the same name (graph.dot.tmpl, page.html.tmpl, style.css) in a directory
// passed to [LoadTemplates].
//
// # Layout Engines
//
// Graph layout is delegated to Graphviz:
//
//   - [ExecLayouter] pipes the DOT text into an external program (dot -Tsvg by
//     default) and reads the SVG from its stdout. This is the default engine.
//   - [GraphvizLayouter] renders in-process through [github.com/goccy/go-graphviz]
//     for hosts without a Graphviz installation.
//
// A layout failure of either kind is fatal; there is no retry.
//
// # Template Data
//
// The DOT template executes against the [graphctx.Context] itself. The HTML
// template receives [Page], which adds the stylesheet and the inline SVG next
// to the context. Both have these helpers:
//
//   - quote: DOT string literal
//   - vertexLabel: display string of a named vertex field, empty if absent
//   - vertexAttr / edgeAttr: raw attribute value, nil if absent
//   - vertexAnchor / edgeAnchor and vertexHref / edgeHref: page anchors
//   - rawHTML: marks a value as trusted HTML (used for text fields)
package render
