package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

type site struct {
	root   string
	config string
	posts  string
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"POSTBUILDER_BASE_PATH", "POSTBUILDER_SITE_URL", "POSTBUILDER_CONFIG", "POSTBUILDER_LOG_LEVEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func newSite(t *testing.T, posts map[string]string) site {
	t.Helper()
	clearEnv(t)
	root := t.TempDir()
	s := site{root: root, config: filepath.Join(root, "postbuilder.yaml"), posts: filepath.Join(root, "posts")}
	require.NoError(t, os.MkdirAll(s.posts, 0o750))
	for name, content := range posts {
		require.NoError(t, os.WriteFile(filepath.Join(s.posts, name), []byte(content), 0o600))
	}
	cfg := strings.NewReplacer("ROOT", root).Replace(`
source:
  dir: ROOT/posts
site:
  url: https://blog.example.com
  title: Tech Blog
  base_path: /techblog/
output:
  index_path: ROOT/out/posts.json
  feed_path: ROOT/out/rss.xml
cache:
  path: ROOT/cache/render.db
build:
  workers: 2
`)
	require.NoError(t, os.WriteFile(s.config, []byte(cfg), 0o600))
	return s
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("postbuilder"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	var out bytes.Buffer
	err = kctx.Run(&Global{Ctx: context.Background(), Out: &out}, &cli)
	return out.String(), err
}

var posts = map[string]string{
	"a.md": "---\ntitle: Hello\ndate: 2021-11-26\nauthor: Ana\ncategories: [go, web]\n---\n" +
		"Read [the next one](/post/b).\n\n```go\nfunc main() {}\n```\n",
	"b.md": "---\ntitle: Later\ndate: 2022-03-01\ncategories: travel\n---\nA trip.\n",
}

func TestBuildListTags(t *testing.T) {
	s := newSite(t, posts)

	out, err := run(t, "--config", s.config, "build")
	require.NoError(t, err)
	require.Contains(t, out, "Indexed 2 posts (2 published)")
	require.FileExists(t, filepath.Join(s.root, "out", "posts.json"))
	require.FileExists(t, filepath.Join(s.root, "out", "rss.xml"))

	out, err = run(t, "--config", s.config, "list")
	require.NoError(t, err)
	require.Less(t, strings.Index(out, "March 1st, 2022"), strings.Index(out, "November 26th, 2021"))

	out, err = run(t, "--config", s.config, "list", "--tag", "go")
	require.NoError(t, err)
	require.Contains(t, out, "Hello")
	require.NotContains(t, out, "Later")

	out, err = run(t, "--config", s.config, "list", "--query", "helo")
	require.NoError(t, err)
	require.Contains(t, out, "Hello")

	out, err = run(t, "--config", s.config, "tags")
	require.NoError(t, err)
	require.Equal(t, "go\ntravel\nweb\n", out)
}

func TestBuild_DryRunAndOverrides(t *testing.T) {
	s := newSite(t, posts)
	out, err := run(t, "--config", s.config, "--base-path", "/", "build", "--dry-run")
	require.NoError(t, err)
	require.Contains(t, out, "Dry run: 2 posts indexed")
	require.NoFileExists(t, filepath.Join(s.root, "out", "posts.json"))
}

func TestList_MissingIndex(t *testing.T) {
	s := newSite(t, posts)
	_, err := run(t, "--config", s.config, "list")
	require.True(t, errors.IsNotFound(err))
}

func TestRender(t *testing.T) {
	s := newSite(t, posts)

	out, err := run(t, "--config", s.config, "render", "a")
	require.NoError(t, err)
	require.Contains(t, out, `href="/techblog/post/b"`)
	require.Contains(t, out, "style=", "code block is highlighted with inline styles")

	out, err = run(t, "--config", s.config, "render", "a.md", "--format", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"slug": "a"`)
	require.Contains(t, out, `"readTime": "about 1 min"`)

	_, err = run(t, "--config", s.config, "render", "missing")
	require.True(t, errors.IsNotFound(err))
}

func TestVerify(t *testing.T) {
	s := newSite(t, posts)
	out, err := run(t, "--config", s.config, "verify")
	require.NoError(t, err)
	require.Contains(t, out, "Checked 2 posts")

	require.NoError(t, os.WriteFile(filepath.Join(s.posts, "c.md"),
		[]byte("---\ntitle: Raw\n---\n<a href=\"/raw\">raw</a>\n"), 0o600))
	out, err = run(t, "--config", s.config, "verify")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Contains(t, out, `c.md: <a href="/raw">`)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postbuilder.yaml")
	out, err := run(t, "--config", path, "init")
	require.NoError(t, err)
	require.Contains(t, out, path)
	require.FileExists(t, path)

	_, err = run(t, "--config", path, "init")
	require.Error(t, err)
	_, err = run(t, "--config", path, "init", "--force")
	require.NoError(t, err)
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv("POSTBUILDER_LOG_LEVEL", "warn")
	require.Equal(t, "WARN", parseLogLevel(false).String())
	require.Equal(t, "DEBUG", parseLogLevel(true).String())
}
