// Package viewer produces the full rendered view of a single post on demand.
package viewer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/docmodel"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/observability"
	"git.home.luguber.info/inful/postbuilder/internal/readtime"
	"git.home.luguber.info/inful/postbuilder/internal/render"
	"git.home.luguber.info/inful/postbuilder/internal/rendercache"
)

// Document is a rendered post.
type Document struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Date        *time.Time `json:"date"`
	Author      string     `json:"author"`
	Categories  []string   `json:"categories"`
	ContentHTML string     `json:"contentHtml"`
	ReadTime    string     `json:"readTime"`
}

// Options configures a Service.
type Options struct {
	SourceDir  string
	Extensions []string
	BasePath   string
}

// Service opens posts from the source directory. It is safe for
// concurrent use.
type Service struct {
	opts     Options
	renderer *render.Renderer
	cache    rendercache.Cache
}

// New creates a service. A nil cache disables memoization.
func New(opts Options, renderer *render.Renderer, cache rendercache.Cache) *Service {
	if cache == nil {
		cache = rendercache.NoopCache{}
	}
	return &Service{opts: opts, renderer: renderer, cache: cache}
}

// Open renders the post identified by slug. The slug may carry the source
// extension ("hello.md"), matching the links the listing produces.
func (s *Service) Open(ctx context.Context, slug string) (*Document, error) {
	path, err := s.locate(slug)
	if err != nil {
		return nil, err
	}

	doc, err := docmodel.ParseFile(path)
	if err != nil {
		return nil, err
	}
	ctx = observability.WithSlug(ctx, doc.Slug())
	if w := doc.Warning(); w != nil {
		observability.WarnContext(ctx, "Malformed front matter, rendering without metadata",
			logfields.Stage("frontmatter"), logfields.Error(w))
	}

	meta := doc.Metadata()
	out := &Document{
		Slug:       doc.Slug(),
		Title:      meta.Title,
		Date:       meta.Date,
		Author:     meta.Author,
		Categories: meta.Categories,
	}

	key := rendercache.Key{Slug: doc.Slug(), Fingerprint: doc.Fingerprint(), BasePath: s.opts.BasePath}
	if entry, ok, err := s.cache.Get(ctx, key); err != nil {
		observability.WarnContext(ctx, "Render cache lookup failed", logfields.Error(err))
	} else if ok {
		out.ContentHTML = entry.HTML
		out.ReadTime = entry.ReadTime
		return out, nil
	}

	body := doc.Body()
	html, renderErr := s.renderer.Render(ctx, body, s.opts.BasePath)
	if renderErr != nil {
		observability.WarnContext(ctx, "Rendering degraded", logfields.Error(renderErr))
	}
	out.ContentHTML = html
	out.ReadTime = readtime.Estimate(string(body))

	// Degraded output is not cached so a fixed diagram engine takes effect.
	if renderErr == nil {
		if err := s.cache.Put(ctx, key, rendercache.Entry{HTML: out.ContentHTML, ReadTime: out.ReadTime}); err != nil {
			observability.WarnContext(ctx, "Render cache store failed", logfields.Error(err))
		}
	}
	return out, nil
}

// locate maps a slug (with or without extension) to a file inside SourceDir.
func (s *Service) locate(slug string) (string, error) {
	notFound := func() error {
		return errors.NotFoundError("post not found").WithSlug(slug).Build()
	}
	if slug == "" || slug != filepath.Base(slug) || strings.ContainsAny(slug, `/\`) || strings.HasPrefix(slug, ".") {
		return "", notFound()
	}

	candidates := make([]string, 0, len(s.opts.Extensions)+1)
	if docmodel.IsSource(slug, s.opts.Extensions) {
		candidates = append(candidates, slug)
	}
	for _, ext := range s.opts.Extensions {
		candidates = append(candidates, slug+ext)
	}
	for _, name := range candidates {
		path := filepath.Join(s.opts.SourceDir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", notFound()
}
