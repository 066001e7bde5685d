package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls how Markdown is parsed.
type Options struct {
	// CommonMarkOnly disables the GitHub-flavored extensions (tables,
	// strikethrough, task lists, linkify).
	CommonMarkOnly bool

	// OmitRawHTML replaces raw HTML in the source with a placeholder
	// comment instead of passing it through.
	OmitRawHTML bool
}

// New returns a goldmark instance configured for post bodies: GFM
// extensions and raw HTML passed through unescaped. Extra options are
// applied after the defaults.
func New(opts Options, extra ...goldmark.Option) goldmark.Markdown {
	var base []goldmark.Option
	if !opts.OmitRawHTML {
		base = append(base, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	if !opts.CommonMarkOnly {
		base = append(base, goldmark.WithExtensions(extension.GFM))
	}
	return goldmark.New(append(base, extra...)...)
}
