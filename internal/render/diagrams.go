package render

import (
	"bytes"
	"context"
	"html"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/observability"
)

// KindDiagram is the node kind of a fenced diagram block after rendering.
var KindDiagram = gmast.NewNodeKind("Diagram")

// Diagram replaces a fenced code block with pre-rendered HTML.
type Diagram struct {
	gmast.BaseBlock
	Language string
	HTML     string
}

func (n *Diagram) Kind() gmast.NodeKind { return KindDiagram }

func (n *Diagram) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Language": n.Language}, nil)
}

type diagramHTMLRenderer struct{}

func (r diagramHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, r.render)
}

func (diagramHTMLRenderer) render(w util.BufWriter, _ []byte, n gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(n.(*Diagram).HTML)
	}
	return gmast.WalkSkipChildren, nil
}

func diagramStage(ctx context.Context, r *Renderer, doc *document) error {
	var blocks []*gmast.FencedCodeBlock
	_ = gmast.Walk(doc.root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if fcb, ok := n.(*gmast.FencedCodeBlock); ok {
			if r.opts.DiagramLanguages[strings.ToLower(string(fcb.Language(doc.source)))] {
				blocks = append(blocks, fcb)
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})

	for _, fcb := range blocks {
		lang := string(fcb.Language(doc.source))
		src := blockSource(fcb, doc.source)

		out, err := r.opts.Diagrams.Render(ctx, strings.ToLower(lang), src)
		if err != nil {
			observability.WarnContext(observability.WithStage(ctx, StageDiagrams),
				"Diagram rendering failed, keeping block as code",
				logfields.Language(lang),
				logfields.Error(err))
			doc.warnings = append(doc.warnings, err)
			out = codeHTML(lang, src)
		}

		node := &Diagram{Language: lang, HTML: out}
		parent := fcb.Parent()
		parent.ReplaceChild(parent, fcb, node)
	}
	return nil
}

func blockSource(fcb *gmast.FencedCodeBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

func codeHTML(lang string, src []byte) string {
	return `<pre><code class="language-` + html.EscapeString(lang) + `">` +
		html.EscapeString(string(src)) + "</code></pre>\n"
}
