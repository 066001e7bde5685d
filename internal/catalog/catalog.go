// Package catalog is the read side of the content index: it loads the
// persisted records and applies the display policy (eligibility, date
// ordering, fuzzy search, tag filtering).
package catalog

import (
	"context"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/index"
	"git.home.luguber.info/inful/postbuilder/internal/util/sets"
)

// Catalog holds the eligible records of an index, newest first.
type Catalog struct {
	all      []index.Record
	eligible []index.Record
	search   *Searcher
}

// New builds a catalog from raw index records.
func New(records []index.Record) *Catalog {
	eligible := SortByDate(Eligible(records))
	return &Catalog{
		all:      records,
		eligible: eligible,
		search:   NewSearcher(DefaultThreshold),
	}
}

// Load reads the index from a file path or an http(s) URL. On failure it
// returns an empty catalog together with a not_found error, so callers can
// render "no posts" and still report the problem.
func Load(ctx context.Context, location string, client *http.Client) (*Catalog, error) {
	data, err := fetch(ctx, location, client)
	if err != nil {
		return New(nil), errors.WrapError(err, errors.CategoryNotFound, "content index not available").
			WithContext("location", location).
			Build()
	}
	records, err := index.Unmarshal(data)
	if err != nil {
		return New(nil), errors.WrapError(err, errors.CategoryNotFound, "content index unreadable").
			WithContext("location", location).
			Build()
	}
	return New(records), nil
}

func fetch(ctx context.Context, location string, client *http.Client) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		// #nosec G304 -- location is the configured index path.
		return os.ReadFile(location)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NotFoundError("unexpected HTTP status").
			WithContext("status", resp.StatusCode).
			Build()
	}
	return io.ReadAll(resp.Body)
}

// WithThreshold replaces the fuzzy search tolerance.
func (c *Catalog) WithThreshold(threshold float64) *Catalog {
	c.search = NewSearcher(threshold)
	return c
}

// All returns every record of the index, in index order.
func (c *Catalog) All() []index.Record { return c.all }

// Posts returns the eligible records, newest first.
func (c *Catalog) Posts() []index.Record { return c.eligible }

// Find returns the eligible record with slug.
func (c *Catalog) Find(slug string) (index.Record, bool) {
	for _, r := range c.eligible {
		if r.Slug == slug {
			return r, true
		}
	}
	return index.Record{}, false
}

// Tags returns the sorted, de-duplicated categories of the eligible records.
func (c *Catalog) Tags() []string {
	s := sets.New[string]()
	for _, r := range c.eligible {
		for _, tag := range r.Categories {
			s.Add(tag)
		}
	}
	return sets.Sorted(s)
}

// Query narrows the listing. Zero values mean "no restriction".
type Query struct {
	Text string
	Tag  string
}

// Query applies the search text first (ranked by match quality, stable for
// equal scores) and then the exact tag filter.
func (c *Catalog) Query(q Query) []index.Record {
	base := c.eligible
	if strings.TrimSpace(q.Text) != "" {
		base = c.search.Search(base, q.Text)
	}
	if q.Tag != "" {
		base = WithTag(base, q.Tag)
	}
	return base
}

// Eligible keeps records with a title, a date and visible set.
func Eligible(records []index.Record) []index.Record {
	out := make([]index.Record, 0, len(records))
	for _, r := range records {
		if r.Eligible() {
			out = append(out, r)
		}
	}
	return out
}

// SortByDate returns records ordered newest first. Records with equal dates
// keep their relative order. Records without a date sort last.
func SortByDate(records []index.Record) []index.Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b index.Record) int {
		switch {
		case a.Date == nil && b.Date == nil:
			return 0
		case a.Date == nil:
			return 1
		case b.Date == nil:
			return -1
		}
		return b.Date.Compare(*a.Date)
	})
	return out
}

// WithTag keeps records whose categories contain tag exactly (case-sensitive).
func WithTag(records []index.Record, tag string) []index.Record {
	out := make([]index.Record, 0, len(records))
	for _, r := range records {
		if r.HasCategory(tag) {
			out = append(out, r)
		}
	}
	return out
}
