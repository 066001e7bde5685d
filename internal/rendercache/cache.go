// Package rendercache memoizes rendered post HTML. Rendering is a pure
// function of (body, base path), so an entry keyed by the post's content
// fingerprint and the base path can be reused until the source changes.
package rendercache

import (
	"context"
	"time"
)

// Key identifies one rendering of one version of a post.
type Key struct {
	Slug        string
	Fingerprint string
	BasePath    string
}

// Entry is a cached rendering.
type Entry struct {
	HTML      string
	ReadTime  string
	CreatedAt time.Time
}

// Cache stores rendered documents.
type Cache interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, entry Entry) error
	Close() error
}

// NoopCache never stores anything (default when cache.path is unset).
type NoopCache struct{}

func (NoopCache) Get(context.Context, Key) (Entry, bool, error) { return Entry{}, false, nil }
func (NoopCache) Put(context.Context, Key, Entry) error         { return nil }
func (NoopCache) Close() error                                  { return nil }
