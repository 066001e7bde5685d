package commands

import (
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/postbuilder/internal/build"
	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/events"
	"git.home.luguber.info/inful/postbuilder/internal/git"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	DryRun bool `name:"dry-run" help:"Build the index without writing artifacts or publishing events"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx := ctxOf(g)
	out := outOf(g)

	svc := build.NewBuildService()
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Textfile != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		svc.WithMetrics(recorder, reg)
	}
	svc.WithCloner(git.NewClient().WithRecorder(recorder))

	publisher := newPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("Failed to close event publisher", logfields.Error(err))
		}
	}()
	svc.WithPublisher(publisher)

	result, err := svc.Run(ctx, build.BuildRequest{Config: cfg, Options: build.BuildOptions{DryRun: b.DryRun}})
	if err != nil {
		return err
	}

	switch {
	case result.Skipped:
		_, _ = fmt.Fprintf(out, "Build skipped: %s (%s)\n", result.SkipReason, cfg.Source.Dir)
		return nil
	case b.DryRun:
		_, _ = fmt.Fprintf(out, "Dry run: %d posts indexed, %d published\n", len(result.Records), result.Eligible)
	default:
		_, _ = fmt.Fprintf(out, "Indexed %d posts (%d published) -> %s\n", len(result.Records), result.Eligible, result.IndexPath)
		if result.FeedPath != "" {
			_, _ = fmt.Fprintf(out, "Feed -> %s\n", result.FeedPath)
		} else {
			_, _ = fmt.Fprintf(out, "Feed skipped: %s\n", result.FeedSkipReason)
		}
	}
	for _, f := range result.Failures {
		_, _ = fmt.Fprintf(out, "  skipped %s (%s): %v\n", f.Filename, f.Stage, f.Err)
	}
	return nil
}

// newPublisher connects to NATS when events are configured. A connection
// failure is logged and events are dropped; the build still runs.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.Events.NATSURL == "" {
		return events.NoopPublisher{}
	}
	p, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		slog.Warn("Event publishing disabled", logfields.URL(cfg.Events.NATSURL), logfields.Error(err))
		return events.NoopPublisher{}
	}
	return p
}
