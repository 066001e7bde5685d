package render

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/diagram"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

type failingEngine struct{}

func (failingEngine) Render(context.Context, string, []byte) (string, error) {
	return "", stderrors.New("engine exploded")
}

type panickingEngine struct{}

func (panickingEngine) Render(context.Context, string, []byte) (string, error) {
	panic("boom")
}

func mermaidOnly(engine diagram.Engine) Options {
	return Options{Diagrams: engine, DiagramLanguages: map[string]bool{"mermaid": true}}
}

func TestRender_GFM(t *testing.T) {
	body := "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~old~~\n\n- [x] done\n\nhttps://example.com\n"
	out, err := New(Options{}).Render(context.Background(), []byte(body), "/")
	require.NoError(t, err)
	require.Contains(t, out, "<table>")
	require.Contains(t, out, "<del>old</del>")
	require.Contains(t, out, `type="checkbox"`)
	require.Contains(t, out, `<a href="https://example.com">https://example.com</a>`)
}

func TestRender_PreservesRawHTML(t *testing.T) {
	body := "<figure class=\"wide\"><img src=\"/a.png\"></figure>\n\nText with <kbd>Ctrl</kbd>.\n"
	out, err := New(Options{}).Render(context.Background(), []byte(body), "/blog/")
	require.NoError(t, err)
	require.Contains(t, out, `<figure class="wide"><img src="/a.png"></figure>`)
	require.Contains(t, out, "<kbd>Ctrl</kbd>")
}

func TestRender_RewritesLinksBeforeSerialize(t *testing.T) {
	body := "[About](/about) and ![Pic](/img/p.png) and [Ext](https://x.org/a)\n"
	out, err := New(Options{}).Render(context.Background(), []byte(body), "/blog/")
	require.NoError(t, err)
	require.Contains(t, out, `href="/blog/about"`)
	require.Contains(t, out, `src="/blog/img/p.png"`)
	require.Contains(t, out, `href="https://x.org/a"`)
}

func TestRender_Highlight(t *testing.T) {
	body := "```go\nfunc main() {}\n```\n"

	out, err := New(Options{Highlight: &config.HighlightConfig{Style: "github", Classes: true}}).
		Render(context.Background(), []byte(body), "/")
	require.NoError(t, err)
	require.Contains(t, out, `class="chroma"`)

	plain, err := New(Options{}).Render(context.Background(), []byte(body), "/")
	require.NoError(t, err)
	require.Contains(t, plain, `<code class="language-go">`)
}

func TestRender_HighlightUnknownLanguageStillRenders(t *testing.T) {
	body := "```no-such-language-xyz\nsome <code>\n```\n\nafter\n"
	out, err := New(Options{Highlight: &config.HighlightConfig{Style: "github"}}).
		Render(context.Background(), []byte(body), "/")
	require.NoError(t, err)
	require.Contains(t, out, "some &lt;code&gt;")
	require.Contains(t, out, "<p>after</p>")
}

func TestRender_ClientDiagram(t *testing.T) {
	body := "Intro\n\n```mermaid\ngraph TD\n  A-->B\n```\n\n```go\nx := 1\n```\n"
	out, err := New(mermaidOnly(diagram.ClientEngine{})).Render(context.Background(), []byte(body), "/")
	require.NoError(t, err)
	require.Contains(t, out, "<pre class=\"mermaid\">graph TD\n  A--&gt;B\n</pre>")
	require.NotContains(t, out, "language-mermaid")
	require.Contains(t, out, `<code class="language-go">`)
}

func TestRender_DiagramFailureDegradesBlock(t *testing.T) {
	body := "Before\n\n```mermaid\nA-->B\n```\n\nAfter [link](/x)\n"
	out, err := New(mermaidOnly(failingEngine{})).Render(context.Background(), []byte(body), "/blog")

	require.Contains(t, out, "<p>Before</p>")
	require.Contains(t, out, "<pre><code class=\"language-mermaid\">A--&gt;B\n</code></pre>")
	require.Contains(t, out, `href="/blog/x"`)

	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryDiagram, ce.Category())
	require.Equal(t, errors.SeverityWarning, ce.Severity())
}

func TestRender_PanicDegradesToEscapedText(t *testing.T) {
	body := "```mermaid\nA-->B\n```\n<b>x</b>\n"
	out, err := New(mermaidOnly(panickingEngine{})).Render(context.Background(), []byte(body), "/")

	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryRender))
	require.Contains(t, out, "&lt;b&gt;x&lt;/b&gt;")
	require.NotEmpty(t, out)
}

func TestRender_Concurrent(t *testing.T) {
	r := New(Options{Highlight: &config.HighlightConfig{Style: "github"}})
	body := []byte("# Title\n\n[a](/a)\n\n```go\nfmt.Println(1)\n```\n")
	want, err := r.Render(context.Background(), body, "/base")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Render(context.Background(), body, "/base")
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		require.Equal(t, want, got)
	}
}

func TestNewProse(t *testing.T) {
	body := "See [docs](/docs) <span>raw</span> ~~x~~\n\n```mermaid\nA-->B\n```\n"
	r := NewProse()
	require.Equal(t, []string{StageParse, StageRewriteLinks, StageSerialize}, r.Stages())

	out, err := r.Render(context.Background(), []byte(body), "/blog/")
	require.NoError(t, err)
	require.Contains(t, out, `href="/blog/docs"`)
	require.NotContains(t, out, "<span>raw</span>")
	require.NotContains(t, out, "<del>")
	require.Contains(t, out, `<code class="language-mermaid">`)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default().Render
	r, err := FromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{StageParse, StageRewriteLinks, StageDiagrams, StageSerialize}, r.Stages())

	cfg.Diagram.Engine = config.DiagramEngineNone
	r, err = FromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{StageParse, StageRewriteLinks, StageSerialize}, r.Stages())

	cfg.Diagram.Engine = "bogus"
	_, err = FromConfig(cfg)
	require.Error(t, err)
}
