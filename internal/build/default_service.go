package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/events"
	"git.home.luguber.info/inful/postbuilder/internal/feed"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/git"
	"git.home.luguber.info/inful/postbuilder/internal/index"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
	"git.home.luguber.info/inful/postbuilder/internal/observability"
	"git.home.luguber.info/inful/postbuilder/internal/storage"
	"git.home.luguber.info/inful/postbuilder/internal/workspace"
)

// Pipeline stage names, used for metrics and log context.
const (
	StageWorkspace  = "workspace"
	StageClone      = "clone"
	StageIndex      = "index"
	StageWriteIndex = "write_index"
	StageWriteFeed  = "write_feed"
	StagePublish    = "publish"
)

const artifactPerm = 0o644

// Cloner fetches the posts repository. *git.Client satisfies it.
type Cloner interface {
	Clone(ctx context.Context, repo config.RepositoryConfig, dest string) (git.CloneResult, error)
}

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	workspaceFactory func(cfg *config.Config) *workspace.Manager
	cloner           Cloner
	publisher        events.Publisher
	recorder         metrics.Recorder
	gatherer         prom.Gatherer
	now              func() time.Time
}

// NewBuildService creates a service with a real git client, no event
// publisher and a no-op metrics recorder.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		workspaceFactory: NewWorkspace,
		cloner:           git.NewClient(),
		publisher:        events.NoopPublisher{},
		recorder:         metrics.NoopRecorder{},
		now:              time.Now,
	}
}

// WithWorkspaceFactory allows injecting a custom workspace factory (for testing).
func (s *DefaultBuildService) WithWorkspaceFactory(factory func(cfg *config.Config) *workspace.Manager) *DefaultBuildService {
	s.workspaceFactory = factory
	return s
}

// WithCloner replaces the git client.
func (s *DefaultBuildService) WithCloner(c Cloner) *DefaultBuildService {
	s.cloner = c
	return s
}

// WithPublisher sets where build notifications go.
func (s *DefaultBuildService) WithPublisher(p events.Publisher) *DefaultBuildService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithMetrics sets the recorder and the gatherer exported to the metrics
// textfile. A nil gatherer disables the export.
func (s *DefaultBuildService) WithMetrics(r metrics.Recorder, g prom.Gatherer) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	s.gatherer = g
	return s
}

// WithClock overrides the time source used for the feed's build date.
func (s *DefaultBuildService) WithClock(now func() time.Time) *DefaultBuildService {
	s.now = now
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	result := &BuildResult{StartTime: time.Now(), BuildID: uuid.NewString()}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	if req.Config == nil {
		return s.fail(ctx, req, result, errors.ConfigError("config required").Build())
	}
	cfg := req.Config

	sourceDir := cfg.Source.Dir
	if cfg.Source.Repository != nil {
		dir, commit, cleanup, err := s.fetchSource(ctx, cfg)
		if err != nil {
			return s.fail(ctx, req, result, err)
		}
		defer cleanup()
		sourceDir = dir
		result.Commit = commit
	}

	// Stage: index
	stageStart := time.Now()
	ictx := observability.WithStage(ctx, StageIndex)
	builder := index.NewBuilder(index.Options{
		SourceDir:  sourceDir,
		Extensions: cfg.Source.Extensions,
		BasePath:   cfg.Site.BasePath,
		Workers:    cfg.Build.Workers,
		BuildID:    result.BuildID,
	}).WithRecorder(s.recorder)
	built, err := builder.Build(ictx)
	s.recorder.ObserveStageDuration(StageIndex, time.Since(stageStart))
	if err != nil {
		s.recorder.IncStageResult(StageIndex, metrics.ResultFailed)
		return s.fail(ictx, req, result, err)
	}
	if built.Skipped {
		s.recorder.IncStageResult(StageIndex, metrics.ResultWarning)
		result.Status = BuildStatusSkipped
		result.Skipped = true
		result.SkipReason = "source directory not found"
		s.finish(ctx, req, result)
		return result, nil
	}
	result.Records = built.Records
	result.Eligible = built.Eligible()
	result.Failures = built.Failures
	result.Warnings = built.Warnings
	for _, f := range built.Failures {
		observability.WarnContext(observability.WithSlug(ictx, f.Slug), "Document left out of index",
			logfields.Stage(f.Stage), logfields.Path(f.Filename), logfields.Error(f.Err))
	}
	if len(built.Failures) > 0 || built.Warnings > 0 {
		s.recorder.IncStageResult(StageIndex, metrics.ResultWarning)
	} else {
		s.recorder.IncStageResult(StageIndex, metrics.ResultSuccess)
	}
	s.recorder.SetIndexedDocuments(len(built.Records))

	if req.Options.DryRun {
		observability.InfoContext(ctx, "Dry run, no artifacts written")
		result.FeedSkipReason = "dry run"
	} else {
		if err := s.writeIndex(ctx, cfg, result); err != nil {
			return s.fail(ctx, req, result, err)
		}
		if err := s.writeFeed(ctx, cfg, result); err != nil {
			return s.fail(ctx, req, result, err)
		}
	}

	result.Status = BuildStatusSuccess
	if len(result.Failures) > 0 || result.Warnings > 0 {
		result.Status = BuildStatusWarning
	}
	s.finish(ctx, req, result)
	return result, nil
}

// fetchSource clones the configured repository and returns the posts
// directory inside the clone.
func (s *DefaultBuildService) fetchSource(ctx context.Context, cfg *config.Config) (string, string, func(), error) {
	stageStart := time.Now()
	wctx := observability.WithStage(ctx, StageWorkspace)
	ws := s.workspaceFactory(cfg)
	if err := ws.Create(); err != nil {
		s.recorder.IncStageResult(StageWorkspace, metrics.ResultFailed)
		return "", "", nil, err
	}
	s.recorder.ObserveStageDuration(StageWorkspace, time.Since(stageStart))
	s.recorder.IncStageResult(StageWorkspace, metrics.ResultSuccess)
	cleanup := func() {
		if err := ws.Cleanup(); err != nil {
			observability.WarnContext(wctx, "Failed to clean up workspace", logfields.Error(err))
		}
	}

	stageStart = time.Now()
	cctx := observability.WithStage(ctx, StageClone)
	dest, err := ws.CreateSubdir(cloneSubdir)
	if err != nil {
		s.recorder.IncStageResult(StageClone, metrics.ResultFailed)
		cleanup()
		return "", "", nil, err
	}
	res, err := s.cloner.Clone(cctx, *cfg.Source.Repository, dest)
	s.recorder.ObserveStageDuration(StageClone, time.Since(stageStart))
	if err != nil {
		s.recorder.IncStageResult(StageClone, metrics.ResultFailed)
		cleanup()
		return "", "", nil, err
	}
	s.recorder.IncStageResult(StageClone, metrics.ResultSuccess)

	return PostsDir(cfg, res.Path), res.Commit, cleanup, nil
}

func (s *DefaultBuildService) writeIndex(ctx context.Context, cfg *config.Config, result *BuildResult) error {
	stageStart := time.Now()
	ctx = observability.WithStage(ctx, StageWriteIndex)
	data, err := index.Marshal(result.Records)
	if err == nil {
		err = storage.WriteFileAtomic(cfg.Output.IndexPath, data, artifactPerm)
	}
	s.recorder.ObserveStageDuration(StageWriteIndex, time.Since(stageStart))
	if err != nil {
		s.recorder.IncStageResult(StageWriteIndex, metrics.ResultFailed)
		return errors.WrapError(err, errors.CategoryIndex, "failed to write content index").
			WithStage(StageWriteIndex).
			WithContext("path", cfg.Output.IndexPath).
			Fatal().
			Build()
	}
	s.recorder.IncStageResult(StageWriteIndex, metrics.ResultSuccess)
	result.IndexPath = cfg.Output.IndexPath
	observability.InfoContext(ctx, "Wrote content index",
		logfields.Path(cfg.Output.IndexPath), logfields.Count(len(result.Records)))
	return nil
}

// writeFeed writes the RSS artifact. A missing site URL skips the feed with
// a warning; it does not fail the build.
func (s *DefaultBuildService) writeFeed(ctx context.Context, cfg *config.Config, result *BuildResult) error {
	ctx = observability.WithStage(ctx, StageWriteFeed)
	if cfg.Site.URL == "" {
		result.FeedSkipReason = "site.url not configured"
		s.recorder.IncStageResult(StageWriteFeed, metrics.ResultWarning)
		observability.WarnContext(ctx, "No site URL configured, skipping feed")
		return nil
	}

	stageStart := time.Now()
	data, err := feed.RSS(feed.Options{
		SiteURL:     cfg.Site.URL,
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		Language:    cfg.Site.Language,
		PostRoute:   cfg.Site.PostRoute,
	}, result.Records, s.now())
	if err == nil {
		err = storage.WriteFileAtomic(cfg.Output.FeedPath, data, artifactPerm)
	}
	s.recorder.ObserveStageDuration(StageWriteFeed, time.Since(stageStart))
	if err != nil {
		s.recorder.IncStageResult(StageWriteFeed, metrics.ResultFailed)
		return errors.WrapError(err, errors.CategoryFeed, "failed to write feed").
			WithStage(StageWriteFeed).
			WithContext("path", cfg.Output.FeedPath).
			Fatal().
			Build()
	}
	s.recorder.IncStageResult(StageWriteFeed, metrics.ResultSuccess)
	result.FeedPath = cfg.Output.FeedPath
	observability.InfoContext(ctx, "Wrote feed", logfields.Path(cfg.Output.FeedPath))
	return nil
}

func (s *DefaultBuildService) fail(ctx context.Context, req BuildRequest, result *BuildResult, err error) (*BuildResult, error) {
	result.Status = BuildStatusFailed
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		result.Status = BuildStatusCancelled
	}
	s.finish(ctx, req, result)
	return result, err
}

// finish stamps timing, records the outcome, exports metrics and announces
// successful builds.
func (s *DefaultBuildService) finish(ctx context.Context, req BuildRequest, result *BuildResult) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	var outcome metrics.BuildOutcomeLabel
	switch result.Status {
	case BuildStatusSuccess:
		outcome = metrics.BuildOutcomeSuccess
	case BuildStatusWarning:
		outcome = metrics.BuildOutcomeWarning
	case BuildStatusSkipped:
		outcome = metrics.BuildOutcomeSkipped
	default:
		outcome = metrics.BuildOutcomeFailed
	}
	s.recorder.IncBuildOutcome(outcome)
	s.recorder.ObserveBuildDuration(result.Duration)

	observability.InfoContext(ctx, "Build finished",
		slog.String("status", string(result.Status)),
		logfields.Count(len(result.Records)),
		slog.Int("failures", len(result.Failures)),
		logfields.Since(result.StartTime))

	if req.Config == nil || req.Options.DryRun {
		return
	}
	if result.Status == BuildStatusSuccess || result.Status == BuildStatusWarning {
		s.publish(ctx, req.Config, result)
	}
	if s.gatherer != nil && req.Config.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(req.Config.Metrics.Textfile, s.gatherer); err != nil {
			observability.WarnContext(ctx, "Metrics export failed", logfields.Error(err))
		}
	}
}

func (s *DefaultBuildService) publish(ctx context.Context, cfg *config.Config, result *BuildResult) {
	stageStart := time.Now()
	ctx = observability.WithStage(ctx, StagePublish)
	err := s.publisher.PublishIndexBuilt(ctx, events.IndexBuilt{
		BuildID:   result.BuildID,
		Records:   len(result.Records),
		Eligible:  result.Eligible,
		Failures:  len(result.Failures),
		IndexPath: result.IndexPath,
		FeedPath:  result.FeedPath,
		BasePath:  cfg.Site.BasePath,
	})
	s.recorder.ObserveStageDuration(StagePublish, time.Since(stageStart))
	if err != nil {
		s.recorder.IncStageResult(StagePublish, metrics.ResultWarning)
		observability.WarnContext(ctx, "Build event not delivered", logfields.Error(err))
		return
	}
	s.recorder.IncStageResult(StagePublish, metrics.ResultSuccess)
}
