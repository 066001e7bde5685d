package commands

import (
	"encoding/json"
	"fmt"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Slug   string `arg:"" help:"Post slug, with or without extension"`
	Format string `short:"f" help:"Output format" enum:"html,json" default:"html"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx := ctxOf(g)
	svc, _, closeFn, err := newViewer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	doc, err := svc.Open(ctx, r.Slug)
	if err != nil {
		return err
	}
	out := outOf(g)
	if r.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	}
	_, err = fmt.Fprint(out, doc.ContentHTML)
	return err
}
