// Package render converts post Markdown into HTML fragments.
//
// Rendering runs as an ordered list of stages over one goldmark syntax
// tree: parse, rewrite_links, diagrams, serialize. GFM extensions apply
// during parse; syntax highlighting is a renderer extension and applies
// during serialize.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/diagram"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/markdown"
	"git.home.luguber.info/inful/postbuilder/internal/observability"
)

// Stage names, in execution order.
const (
	StageParse        = "parse"
	StageRewriteLinks = "rewrite_links"
	StageDiagrams     = "diagrams"
	StageSerialize    = "serialize"
)

// Options selects the optional renderer stages.
type Options struct {
	// Highlight enables chroma highlighting of fenced code blocks.
	Highlight *config.HighlightConfig

	// Diagrams renders fenced blocks whose language is in DiagramLanguages.
	// Nil disables the diagram stage.
	Diagrams         diagram.Engine
	DiagramLanguages map[string]bool

	// Prose renders plain CommonMark with raw HTML omitted; used for excerpts.
	Prose bool
}

// Renderer is safe for concurrent use. It holds no per-document state.
type Renderer struct {
	md     goldmark.Markdown
	opts   Options
	stages []stage
}

// document is the state threaded through the stages of one render call.
type document struct {
	source   []byte
	basePath string
	root     gmast.Node
	warnings []error
}

type stage struct {
	name  string
	apply func(ctx context.Context, r *Renderer, doc *document) error
}

// New creates a renderer with the given stages enabled.
func New(opts Options) *Renderer {
	var extra []goldmark.Option
	if opts.Highlight != nil {
		extra = append(extra, goldmark.WithExtensions(highlighting.NewHighlighting(
			highlighting.WithStyle(opts.Highlight.Style),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(opts.Highlight.Classes),
				chromahtml.WithLineNumbers(opts.Highlight.LineNumbers),
			),
		)))
	}
	extra = append(extra, goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(util.Prioritized(diagramHTMLRenderer{}, 100)),
	))

	r := &Renderer{
		md: markdown.New(markdown.Options{
			CommonMarkOnly: opts.Prose,
			OmitRawHTML:    opts.Prose,
		}, extra...),
		opts: opts,
	}

	r.stages = []stage{
		{name: StageParse, apply: parseStage},
		{name: StageRewriteLinks, apply: rewriteLinksStage},
	}
	if opts.Diagrams != nil && len(opts.DiagramLanguages) > 0 {
		r.stages = append(r.stages, stage{name: StageDiagrams, apply: diagramStage})
	}
	return r
}

// NewProse returns the excerpt renderer: link rewriting only, no
// highlighting or diagrams.
func NewProse() *Renderer {
	return New(Options{Prose: true})
}

// FromConfig builds the full document renderer from render configuration.
func FromConfig(cfg config.RenderConfig) (*Renderer, error) {
	engine, err := diagram.New(cfg.Diagram)
	if err != nil {
		return nil, err
	}
	opts := Options{
		Diagrams:         engine,
		DiagramLanguages: diagram.Languages(cfg.Diagram),
	}
	if cfg.Highlight.IsEnabled() {
		h := cfg.Highlight
		opts.Highlight = &h
	}
	return New(opts), nil
}

// Stages lists the stage names this renderer runs before serialization.
func (r *Renderer) Stages() []string {
	names := make([]string, 0, len(r.stages)+1)
	for _, s := range r.stages {
		names = append(names, s.name)
	}
	return append(names, StageSerialize)
}

// Render converts a Markdown body to an HTML fragment, prefixing
// root-relative link and image targets with basePath.
//
// The returned HTML is always usable. A non-nil error is a warning-severity
// classified error describing degraded output (a diagram block rendered as
// code, or the whole body rendered as escaped text after a renderer panic).
func (r *Renderer) Render(ctx context.Context, body []byte, basePath string) (out string, err error) {
	doc := &document{source: body, basePath: basePath}

	defer func() {
		if rec := recover(); rec != nil {
			out = fallbackHTML(body)
			err = errors.RenderError("renderer panicked; rendered body as plain text").
				WithContext("panic", fmt.Sprint(rec)).
				Build()
		}
	}()

	for _, s := range r.stages {
		if err := s.apply(ctx, r, doc); err != nil {
			return fallbackHTML(body), errors.WrapError(err, errors.CategoryRender, "render stage failed").
				WithStage(s.name).
				Warning().
				Build()
		}
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, doc.source, doc.root); err != nil {
		return fallbackHTML(body), errors.WrapError(err, errors.CategoryRender, "failed to serialize document").
			WithStage(StageSerialize).
			Warning().
			Build()
	}

	if len(doc.warnings) > 0 {
		return buf.String(), errors.WrapError(doc.warnings[0], errors.CategoryDiagram, "diagram blocks degraded to code").
			WithStage(StageDiagrams).
			WithContext("blocks", len(doc.warnings)).
			Warning().
			Build()
	}
	return buf.String(), nil
}

func parseStage(_ context.Context, r *Renderer, doc *document) error {
	doc.root = r.md.Parser().Parse(text.NewReader(doc.source))
	return nil
}

func rewriteLinksStage(ctx context.Context, _ *Renderer, doc *document) error {
	n := markdown.RewriteLinks(doc.root, doc.basePath)
	if n > 0 {
		observability.DebugContext(observability.WithStage(ctx, StageRewriteLinks),
			"Rewrote root-relative links",
			logfields.BasePath(doc.basePath),
			logfields.Count(n))
	}
	return nil
}

func fallbackHTML(body []byte) string {
	return "<pre>" + html.EscapeString(string(body)) + "</pre>\n"
}
