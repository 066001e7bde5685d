package linkverify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/markdown"
	"git.home.luguber.info/inful/postbuilder/internal/observability"
	"git.home.luguber.info/inful/postbuilder/internal/viewer"
)

// Issue is a link that does not resolve under the base path.
type Issue struct {
	Slug   string `json:"slug"`
	Link   Link   `json:"link"`
	Reason string `json:"reason"`
}

// Failure is a post that could not be opened for checking.
type Failure struct {
	Slug string
	Err  error
}

// Report summarizes a verification run.
type Report struct {
	Checked  int
	Links    int
	Issues   []Issue
	Failures []Failure
}

// OK reports whether the run found neither issues nor failures.
func (r *Report) OK() bool {
	return len(r.Issues) == 0 && len(r.Failures) == 0
}

// Opener yields a rendered post. *viewer.Service satisfies it.
type Opener interface {
	Open(ctx context.Context, slug string) (*viewer.Document, error)
}

// Check returns the links in content that escape basePath along with the
// total number of links seen. With basePath "/" every root-relative link
// is acceptable.
func Check(content, basePath string) ([]Issue, int, error) {
	links, err := ExtractLinks(strings.NewReader(content))
	if err != nil {
		return nil, 0, err
	}
	prefix := strings.TrimRight(basePath, "/")
	absolute := strings.Contains(prefix, "://")

	var issues []Issue
	for _, l := range links {
		if !markdown.IsRootRelative(l.URL) || prefix == "" {
			continue
		}
		if absolute {
			issues = append(issues, Issue{Link: l, Reason: fmt.Sprintf("root-relative link not resolved against %s", basePath)})
			continue
		}
		if !underPrefix(l.URL, prefix) {
			issues = append(issues, Issue{Link: l, Reason: fmt.Sprintf("link is outside base path %s", basePath)})
		}
	}
	return issues, len(links), nil
}

func underPrefix(target, prefix string) bool {
	if !strings.HasPrefix(target, prefix) {
		return false
	}
	rest := target[len(prefix):]
	return rest == "" || strings.ContainsAny(rest[:1], "/?#")
}

// Run opens every slug through opener and checks its rendered HTML.
// workers <= 0 means NumCPU. Issues and failures are ordered by slug
// position in the input.
func Run(ctx context.Context, opener Opener, slugs []string, basePath string, workers int) (*Report, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	type result struct {
		issues []Issue
		links  int
		err    error
	}
	results := make([]result, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, slug := range slugs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := opener.Open(gctx, slug)
			if err != nil {
				results[i] = result{err: err}
				return nil
			}
			issues, n, err := Check(doc.ContentHTML, basePath)
			for j := range issues {
				issues[j].Slug = slug
			}
			results[i] = result{issues: issues, links: n, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for i, r := range results {
		if r.err != nil {
			report.Failures = append(report.Failures, Failure{Slug: slugs[i], Err: r.err})
			observability.WarnContext(observability.WithSlug(ctx, slugs[i]), "Link check skipped", logfields.Error(r.err))
			continue
		}
		report.Checked++
		report.Links += r.links
		report.Issues = append(report.Issues, r.issues...)
	}
	slog.Info("Link verification finished",
		slog.Int("checked", report.Checked),
		slog.Int("links", report.Links),
		slog.Int("issues", len(report.Issues)))
	return report, nil
}
