package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureDefault(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContextValues(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-1")
	ctx = WithSlug(ctx, "hello")
	ctx = WithStage(ctx, "excerpt")

	require.Equal(t, LogContext{BuildID: "build-1", Slug: "hello", Stage: "excerpt"}, GetContext(ctx))
}

func TestContextIsolation(t *testing.T) {
	base := WithBuildID(context.Background(), "build-1")
	a := WithSlug(base, "a")
	b := WithSlug(base, "b")

	require.Equal(t, "a", GetContext(a).Slug)
	require.Equal(t, "b", GetContext(b).Slug)
	require.Empty(t, GetContext(base).Slug)
}

func TestEmptyContext(t *testing.T) {
	require.Empty(t, Attrs(context.Background()))
	require.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestWarnContext_IncludesContextAttrs(t *testing.T) {
	buf := captureDefault(t, slog.LevelInfo)

	ctx := WithSlug(WithBuildID(context.Background(), "b-42"), "my-post")
	WarnContext(ctx, "diagram failed", slog.String("language", "mermaid"))

	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "build_id=b-42")
	require.Contains(t, out, "slug=my-post")
	require.Contains(t, out, "language=mermaid")
}

func TestDebugContext_RespectsLevel(t *testing.T) {
	buf := captureDefault(t, slog.LevelInfo)
	DebugContext(context.Background(), "hidden")
	require.Empty(t, buf.String())

	InfoContext(context.Background(), "shown")
	ErrorContext(context.Background(), "also shown")
	require.Contains(t, buf.String(), "shown")
	require.Contains(t, buf.String(), "level=ERROR")
}
