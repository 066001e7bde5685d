// Package commands implements the postbuilder command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/postbuilder/internal/build"
	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/git"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/render"
	"git.home.luguber.info/inful/postbuilder/internal/rendercache"
	"git.home.luguber.info/inful/postbuilder/internal/viewer"
)

// Global carries process-wide state into commands.
type Global struct {
	Ctx context.Context
	Out io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"postbuilder.yaml" env:"POSTBUILDER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Source   string `help:"Override source.dir" placeholder:"DIR"`
	BasePath string `name:"base-path" help:"Override site.base_path (deployment prefix for root-relative links)" env:"POSTBUILDER_BASE_PATH"`
	SiteURL  string `name:"site-url" help:"Override site.url used for feed links" env:"POSTBUILDER_SITE_URL"`

	Build  BuildCmd  `cmd:"" help:"Build the content index and RSS feed"`
	Render RenderCmd `cmd:"" help:"Render one post to HTML"`
	List   ListCmd   `cmd:"" help:"List published posts from the content index"`
	Tags   TagsCmd   `cmd:"" help:"List the categories used by published posts"`
	Verify VerifyCmd `cmd:"" help:"Check rendered posts for links outside the base path"`
	Init   InitCmd   `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honors --verbose first, then POSTBUILDER_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("POSTBUILDER_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// loadConfig reads the configuration file and applies flag overrides. A
// missing file at the default path yields the defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.Config == config.DefaultPath {
		cfg, err = config.LoadOptional(c.Config)
	} else {
		cfg, err = config.Load(c.Config)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(config.Overrides{
		SourceDir: c.Source,
		BasePath:  c.BasePath,
		SiteURL:   c.SiteURL,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViewer resolves the posts directory (cloning the repository when the
// posts live in git) and wires the document renderer and, when configured,
// the render cache. The returned close function releases both.
func newViewer(ctx context.Context, cfg *config.Config) (*viewer.Service, string, func(), error) {
	renderer, err := render.FromConfig(cfg.Render)
	if err != nil {
		return nil, "", nil, err
	}
	slog.Debug("Renderer ready", slog.Any("stages", renderer.Stages()))

	src, err := build.OpenSource(ctx, cfg, git.NewClient())
	if err != nil {
		return nil, "", nil, err
	}

	var cache rendercache.Cache = rendercache.NoopCache{}
	if cfg.Cache.Path != "" {
		sc, err := rendercache.OpenSQLite(cfg.Cache.Path)
		if err != nil {
			slog.Warn("Render cache unavailable, rendering without it", logfields.Path(cfg.Cache.Path), logfields.Error(err))
		} else {
			cache = sc
		}
	}
	svc := viewer.New(viewer.Options{
		SourceDir:  src.Dir,
		Extensions: cfg.Source.Extensions,
		BasePath:   cfg.Site.BasePath,
	}, renderer, cache)
	closeFn := func() {
		if err := cache.Close(); err != nil {
			slog.Warn("Failed to close render cache", logfields.Error(err))
		}
		src.Close()
	}
	return svc, src.Dir, closeFn, nil
}

func ctxOf(g *Global) context.Context {
	if g == nil || g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

func outOf(g *Global) io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// resultError signals a completed command whose outcome should fail the
// process.
func resultError(msg string) error {
	return errors.ValidationError(msg).Build()
}
