// Package excerpt derives the preview shown for a post in listings.
package excerpt

import (
	"bytes"
	"context"
	"html"
	"regexp"

	"git.home.luguber.info/inful/postbuilder/internal/render"
)

// Excerpt is the first paragraph of a post body.
type Excerpt struct {
	// HTML is the paragraph rendered as prose (links rewritten, no
	// highlighting or diagrams).
	HTML string
	// Plain is the untransformed Markdown of the paragraph, trimmed.
	Plain string
}

var paragraphBreak = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)

// FirstParagraph returns the text of the trimmed body up to the first blank
// line. A body without a blank line is returned whole.
func FirstParagraph(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if loc := paragraphBreak.FindIndex(trimmed); loc != nil {
		return bytes.TrimSpace(trimmed[:loc[0]])
	}
	return trimmed
}

// Generator renders excerpts. The zero value is not usable; use New.
type Generator struct {
	prose *render.Renderer
}

func New() *Generator {
	return &Generator{prose: render.NewProse()}
}

// Generate builds the excerpt for body. On a render error the returned
// excerpt still carries Plain and an escaped-text HTML paragraph.
func (g *Generator) Generate(ctx context.Context, body []byte, basePath string) (Excerpt, error) {
	para := FirstParagraph(body)
	ex := Excerpt{Plain: string(para)}

	out, err := g.prose.Render(ctx, para, basePath)
	if err != nil {
		ex.HTML = "<p>" + html.EscapeString(ex.Plain) + "</p>\n"
		return ex, err
	}
	ex.HTML = out
	return ex, nil
}
