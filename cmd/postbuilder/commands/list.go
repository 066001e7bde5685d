package commands

import (
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/catalog"
	"git.home.luguber.info/inful/postbuilder/internal/config"
)

// IndexSource selects where the content index is read from.
type IndexSource struct {
	Index string `help:"Content index location (file path or http(s) URL); defaults to output.index_path"`
}

func (s IndexSource) load(g *Global, cfg *config.Config) (*catalog.Catalog, error) {
	location := s.Index
	if location == "" {
		location = cfg.Output.IndexPath
	}
	return catalog.Load(ctxOf(g), location, &http.Client{Timeout: 10 * time.Second})
}

// ListCmd implements the 'list' command.
type ListCmd struct {
	IndexSource `embed:""`

	Query     string  `short:"q" help:"Fuzzy search over title, author and excerpt"`
	Tag       string  `short:"t" help:"Only posts with this exact category"`
	Threshold float64 `help:"Search tolerance (0 exact, higher is more permissive)" default:"0.3"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	cat, err := l.load(g, cfg)
	if err != nil {
		return err
	}
	posts := cat.WithThreshold(l.Threshold).Query(catalog.Query{Text: l.Query, Tag: l.Tag})

	out := outOf(g)
	if len(posts) == 0 {
		_, _ = fmt.Fprintln(out, "No posts found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range posts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			catalog.FormatDate(p.Date), p.Title, p.Slug, strings.Join(p.Categories, ", "))
	}
	return tw.Flush()
}

// TagsCmd implements the 'tags' command.
type TagsCmd struct {
	IndexSource `embed:""`
}

func (t *TagsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	cat, err := t.load(g, cfg)
	if err != nil {
		return err
	}
	out := outOf(g)
	for _, tag := range cat.Tags() {
		_, _ = fmt.Fprintln(out, tag)
	}
	return nil
}
