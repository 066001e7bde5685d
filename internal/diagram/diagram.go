// Package diagram turns fenced diagram blocks into HTML markup.
package diagram

import (
	"context"
	"html"
	"strings"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// Engine renders the source of one fenced diagram block to HTML.
//
// Implementations must be safe for concurrent use.
type Engine interface {
	Render(ctx context.Context, lang string, source []byte) (string, error)
}

// ClientEngine leaves rendering to the browser: the block is emitted as
// <pre class="LANG"> with escaped source, which mermaid.js picks up on load.
type ClientEngine struct{}

func (ClientEngine) Render(_ context.Context, lang string, source []byte) (string, error) {
	var b strings.Builder
	b.WriteString(`<pre class="`)
	b.WriteString(html.EscapeString(lang))
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(string(source)))
	b.WriteString("</pre>\n")
	return b.String(), nil
}

// New builds the engine selected by cfg. It returns a nil Engine for
// the "none" engine, in which case diagram blocks render as code.
func New(cfg config.DiagramConfig) (Engine, error) {
	switch cfg.Engine {
	case "", config.DiagramEngineClient:
		return ClientEngine{}, nil
	case config.DiagramEngineCommand:
		return NewCommandEngine(cfg), nil
	case config.DiagramEngineNone:
		return nil, nil
	default:
		return nil, errors.ConfigError("unknown diagram engine").
			WithContext("engine", cfg.Engine).
			Build()
	}
}

// Languages returns the set of fence languages treated as diagrams.
func Languages(cfg config.DiagramConfig) map[string]bool {
	set := make(map[string]bool, len(cfg.Languages))
	for _, l := range cfg.Languages {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			set[l] = true
		}
	}
	return set
}
