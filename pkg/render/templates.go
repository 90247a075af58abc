package render

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	texttemplate "text/template"

	"github.com/matzehuels/graphpage/pkg/errors"
	"github.com/matzehuels/graphpage/pkg/graphctx"
)

// Template file names, both in the embedded defaults and in override directories.
const (
	DOTTemplateName  = "graph.dot.tmpl"
	HTMLTemplateName = "page.html.tmpl"
	StylesheetName   = "style.css"
)

// DefaultTitle is used when the description carries no title.
const DefaultTitle = "Graph"

//go:embed templates
var embedded embed.FS

// Templates holds the parsed DOT and HTML templates and the stylesheet.
// A Templates value is safe for concurrent use.
type Templates struct {
	dot  *texttemplate.Template
	html *htmltemplate.Template
	css  string
}

// Page is the data passed to the HTML template.
type Page struct {
	Context *graphctx.Context
	Title   string
	CSS     htmltemplate.CSS
	SVG     htmltemplate.HTML
}

// DefaultTemplates returns the embedded templates.
func DefaultTemplates() *Templates {
	t, err := LoadTemplates("")
	if err != nil {
		panic(fmt.Sprintf("render: embedded templates: %v", err))
	}
	return t
}

// LoadTemplates parses the templates. Files present in dir replace the
// embedded default of the same name; an empty dir uses the defaults only.
func LoadTemplates(dir string) (*Templates, error) {
	defaults, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open embedded templates")
	}

	read := func(name string) (string, error) {
		if dir != "" {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err == nil {
				return string(data), nil
			}
			if !os.IsNotExist(err) {
				return "", errors.Wrap(errors.ErrCodeIO, err, "read template %s", name)
			}
		}
		data, err := fs.ReadFile(defaults, name)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "read embedded %s", name)
		}
		return string(data), nil
	}

	dotSrc, err := read(DOTTemplateName)
	if err != nil {
		return nil, err
	}
	htmlSrc, err := read(HTMLTemplateName)
	if err != nil {
		return nil, err
	}
	css, err := read(StylesheetName)
	if err != nil {
		return nil, err
	}

	dot, err := texttemplate.New(DOTTemplateName).Funcs(texttemplate.FuncMap(funcs)).Parse(dotSrc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTemplateFailed, err, "parse %s", DOTTemplateName)
	}
	html, err := htmltemplate.New(HTMLTemplateName).Funcs(htmltemplate.FuncMap(funcs)).Parse(htmlSrc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTemplateFailed, err, "parse %s", HTMLTemplateName)
	}

	return &Templates{dot: dot, html: html, css: css}, nil
}

// CSS returns the stylesheet injected into the page.
func (t *Templates) CSS() string { return t.css }

// DOT renders the graph description text for c.
func (t *Templates) DOT(c *graphctx.Context) (string, error) {
	var buf bytes.Buffer
	if err := t.dot.Execute(&buf, c); err != nil {
		return "", errors.Wrap(errors.ErrCodeTemplateFailed, err, "execute %s", DOTTemplateName)
	}
	return buf.String(), nil
}

// HTML renders the final page for c with svg inlined.
func (t *Templates) HTML(c *graphctx.Context, svg []byte) (string, error) {
	page := Page{
		Context: c,
		Title:   title(c),
		CSS:     htmltemplate.CSS(t.css),
		SVG:     htmltemplate.HTML(InlineSVG(svg)),
	}

	var buf bytes.Buffer
	if err := t.html.Execute(&buf, page); err != nil {
		return "", errors.Wrap(errors.ErrCodeTemplateFailed, err, "execute %s", HTMLTemplateName)
	}
	return buf.String(), nil
}

func title(c *graphctx.Context) string {
	if v, ok := c.Extra["title"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return DefaultTitle
}

var svgStartRe = regexp.MustCompile(`<svg[\s>]`)

// InlineSVG strips the XML prolog and doctype that Graphviz emits so the image
// can be embedded in an HTML document.
func InlineSVG(svg []byte) string {
	loc := svgStartRe.FindIndex(svg)
	if loc == nil {
		return string(svg)
	}
	return string(svg[loc[0]:])
}

var funcs = map[string]any{
	"quote":        quoteDOT,
	"vertexLabel":  vertexLabel,
	"vertexAttr":   vertexAttr,
	"edgeAttr":     edgeAttr,
	"vertexAnchor": VertexAnchor,
	"edgeAnchor":   EdgeAnchor,
	"vertexHref":   func(v *graphctx.Vertex) string { return "#" + VertexAnchor(v) },
	"edgeHref":     func(e *graphctx.Edge) string { return "#" + EdgeAnchor(e) },
	"rawHTML":      func(v any) htmltemplate.HTML { return htmltemplate.HTML(fmt.Sprint(v)) },
	"endpoint":     newEndpoint,
}

// VertexAnchor is the page element id holding the details of v. The id is
// path-escaped so it contains no whitespace and can be used verbatim as a URL
// fragment.
func VertexAnchor(v *graphctx.Vertex) string { return "vertex-" + url.PathEscape(v.ID) }

// endpoint is one side of an edge in the page's edge list. Only linked
// vertices have an entry to point at.
type endpoint struct {
	Vertex *graphctx.Vertex
	Label  string
}

func newEndpoint(v *graphctx.Vertex, label *string) endpoint {
	return endpoint{Vertex: v, Label: vertexLabel(v, label)}
}

// EdgeAnchor is the page element id holding the details of e.
func EdgeAnchor(e *graphctx.Edge) string { return fmt.Sprintf("edge-%d", e.ID) }

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

func quoteDOT(v any) string {
	return `"` + dotEscaper.Replace(fmt.Sprint(v)) + `"`
}

func vertexLabel(v *graphctx.Vertex, label *string) string {
	if label == nil {
		return ""
	}
	val, ok := v.Field(*label)
	if !ok {
		return ""
	}
	return fmt.Sprint(val)
}

func vertexAttr(v *graphctx.Vertex, name string) any {
	val, _ := v.Field(name)
	return val
}

func edgeAttr(e *graphctx.Edge, name string) any {
	val, _ := e.Field(name)
	return val
}
