package viewer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postbuilder/internal/diagram"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/render"
	"git.home.luguber.info/inful/postbuilder/internal/rendercache"
)

const post = "---\ntitle: Hello\ndate: 2021-11-26\nauthor: Ana\ncategories: go web\n---\n" +
	"# Hello\n\nSee [about](/about).\n\n```mermaid\ngraph TD\n  A-->B\n```\n"

func setup(t *testing.T, cache rendercache.Cache) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.md"), []byte(post), 0o600))
	r := render.New(render.Options{Diagrams: diagram.ClientEngine{}, DiagramLanguages: map[string]bool{"mermaid": true}})
	return New(Options{SourceDir: dir, Extensions: []string{".md", ".markdown"}, BasePath: "/blog/"}, r, cache), dir
}

func TestOpen(t *testing.T) {
	svc, _ := setup(t, nil)

	for _, slug := range []string{"hello", "hello.md"} {
		doc, err := svc.Open(context.Background(), slug)
		require.NoError(t, err)
		require.Equal(t, "hello", doc.Slug)
		require.Equal(t, "Hello", doc.Title)
		require.Equal(t, "Ana", doc.Author)
		require.Equal(t, []string{"go", "web"}, doc.Categories)
		require.NotNil(t, doc.Date)
		require.Equal(t, "about 1 min", doc.ReadTime)
		require.Contains(t, doc.ContentHTML, `<a href="/blog/about">about</a>`)
		require.Contains(t, doc.ContentHTML, `<pre class="mermaid">`)
	}
}

func TestOpen_NotFound(t *testing.T) {
	svc, dir := setup(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "secret.md"), []byte("x"), 0o600))

	for _, slug := range []string{"missing", "", "../secret", "..", ".hidden", "sub/hello", "hello.txt"} {
		_, err := svc.Open(context.Background(), slug)
		require.Error(t, err, slug)
		require.True(t, errors.IsNotFound(err), slug)
	}
}

func TestOpen_ReadTimeFromBody(t *testing.T) {
	svc, dir := setup(t, nil)
	body := "---\ntitle: Long\n---\n" + strings.Repeat("word ", 400)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "long.markdown"), []byte(body), 0o600))

	doc, err := svc.Open(context.Background(), "long")
	require.NoError(t, err)
	require.Equal(t, "About 3 mins", doc.ReadTime)
}

type memCache struct {
	mu      sync.Mutex
	entries map[rendercache.Key]rendercache.Entry
	hits    int
}

func (m *memCache) Get(_ context.Context, k rendercache.Key) (rendercache.Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[k]
	if ok {
		m.hits++
	}
	return e, ok, nil
}

func (m *memCache) Put(_ context.Context, k rendercache.Key, e rendercache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[rendercache.Key]rendercache.Entry{}
	}
	m.entries[k] = e
	return nil
}

func (m *memCache) Close() error { return nil }

func TestOpen_UsesCacheUntilContentChanges(t *testing.T) {
	cache := &memCache{}
	svc, dir := setup(t, cache)

	first, err := svc.Open(context.Background(), "hello")
	require.NoError(t, err)
	second, err := svc.Open(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, first.ContentHTML, second.ContentHTML)
	require.Equal(t, 1, cache.hits)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.md"), []byte(post+"\nMore text.\n"), 0o600))
	third, err := svc.Open(context.Background(), "hello")
	require.NoError(t, err)
	require.Contains(t, third.ContentHTML, "More text.")
	require.Equal(t, 1, cache.hits)
}

func TestOpen_WithSQLiteCache(t *testing.T) {
	cache, err := rendercache.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()
	svc, _ := setup(t, cache)

	a, err := svc.Open(context.Background(), "hello")
	require.NoError(t, err)
	b, err := svc.Open(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, a, b)

	n, err := cache.Len(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
