package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/postbuilder/internal/docmodel"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/linkverify"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Workers int `help:"Concurrent renders (default build.workers)"`
}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx := ctxOf(g)
	svc, dir, closeFn, err := newViewer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotFound, "cannot read source directory").
			WithContext("path", dir).
			Build()
	}
	var slugs []string
	for _, e := range entries {
		if !e.IsDir() && docmodel.IsSource(e.Name(), cfg.Source.Extensions) {
			slugs = append(slugs, e.Name())
		}
	}

	workers := v.Workers
	if workers <= 0 {
		workers = cfg.Build.Workers
	}
	report, err := linkverify.Run(ctx, svc, slugs, cfg.Site.BasePath, workers)
	if err != nil {
		return err
	}

	out := outOf(g)
	for _, is := range report.Issues {
		_, _ = fmt.Fprintf(out, "%s: <%s %s=%q> %s\n", is.Slug, is.Link.Tag, is.Link.Attribute, is.Link.URL, is.Reason)
	}
	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(out, "%s: not checked: %v\n", f.Slug, f.Err)
	}
	_, _ = fmt.Fprintf(out, "Checked %d posts, %d links, %d issues\n", report.Checked, report.Links, len(report.Issues))
	if !report.OK() {
		return resultError(fmt.Sprintf("link verification found %d issues", len(report.Issues)+len(report.Failures)))
	}
	return nil
}
