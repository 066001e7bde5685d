package excerpt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstParagraph(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"two paragraphs", "Para one.\n\nPara two.", "Para one."},
		{"no blank line", "  Line one\nline two  \n", "Line one\nline two"},
		{"leading blank lines", "\n\n\nFirst.\n\n\n\nSecond.", "First."},
		{"whitespace-only separator", "First.\n  \t\nSecond.", "First."},
		{"crlf", "First.\r\n\r\nSecond.", "First."},
		{"empty", "", ""},
		{"multiline paragraph", "A\nB\n\nC", "A\nB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(FirstParagraph([]byte(tt.body))))
		})
	}
}

func TestGenerate(t *testing.T) {
	g := New()
	ex, err := g.Generate(context.Background(), []byte("Read [this](/post/a) *now*.\n\nSecond para."), "/blog/")
	require.NoError(t, err)
	require.Equal(t, "Read [this](/post/a) *now*.", ex.Plain)
	require.Equal(t, "<p>Read <a href=\"/blog/post/a\">this</a> <em>now</em>.</p>\n", ex.HTML)
}

func TestGenerate_ProseOnly(t *testing.T) {
	g := New()
	ex, err := g.Generate(context.Background(), []byte("```go\nx := 1\n```"), "/")
	require.NoError(t, err)
	require.Contains(t, ex.HTML, `<code class="language-go">`)
	require.NotContains(t, ex.HTML, "chroma")
}
