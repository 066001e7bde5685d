// Package feed derives the RSS feed from content index records.
//
// The index stays unfiltered; the feed applies the same eligibility policy
// as the catalog (title, date, visible) so hidden or incomplete posts are
// never syndicated.
package feed

import (
	"slices"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/index"
)

// Options describes the feed channel.
type Options struct {
	SiteURL     string
	Title       string
	Description string
	Language    string
	// PostRoute is the path under SiteURL where posts are served, e.g. "/post/".
	PostRoute string
}

// PostLink returns the absolute link of a post.
func (o Options) PostLink(slug string) string {
	route := "/" + strings.Trim(o.PostRoute, "/") + "/"
	if route == "//" {
		route = "/"
	}
	return strings.TrimRight(o.SiteURL, "/") + route + slug
}

// Items selects the records that go into the feed: those a reader may see
// (title, date, visible), newest first. Records with equal dates keep their
// index order.
func Items(records []index.Record) []index.Record {
	var out []index.Record
	for _, r := range records {
		if r.Eligible() {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b index.Record) int {
		return b.Date.Compare(*a.Date)
	})
	return out
}

// Build assembles the feed model. now becomes the channel's build date.
func Build(opts Options, records []index.Record, now time.Time) (*feeds.Feed, error) {
	if strings.TrimSpace(opts.SiteURL) == "" {
		return nil, errors.FeedError("site.url is required to build feed links").
			WithContext("field", "site.url").
			Build()
	}

	f := &feeds.Feed{
		Title:       opts.Title,
		Link:        &feeds.Link{Href: opts.SiteURL},
		Description: opts.Description,
		Created:     now,
		Updated:     now,
	}
	for _, r := range Items(records) {
		link := opts.PostLink(r.Slug)
		item := &feeds.Item{
			Title:       r.Title,
			Link:        &feeds.Link{Href: link},
			Description: r.ExcerptHTML,
			Id:          link,
			Created:     *r.Date,
		}
		if r.Author != "" {
			item.Author = &feeds.Author{Name: r.Author}
		}
		f.Items = append(f.Items, item)
	}
	return f, nil
}

// RSS renders records as an RSS 2.0 document.
func RSS(opts Options, records []index.Record, now time.Time) ([]byte, error) {
	f, err := Build(opts, records, now)
	if err != nil {
		return nil, err
	}

	rss := (&feeds.Rss{Feed: f}).RssFeed()
	rss.Language = opts.Language
	rss.LastBuildDate = now.UTC().Format(time.RFC1123Z)

	out, err := feeds.ToXML(rss)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFeed, "failed to encode RSS feed").Build()
	}
	return []byte(out), nil
}
