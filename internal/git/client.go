package git

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/postbuilder/internal/auth"
	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/postbuilder/internal/logfields"
	"git.home.luguber.info/inful/postbuilder/internal/metrics"
	"git.home.luguber.info/inful/postbuilder/internal/observability"
	"git.home.luguber.info/inful/postbuilder/internal/retry"
)

// CloneResult describes a finished clone.
type CloneResult struct {
	Path   string
	Commit string
}

// Client handles Git operations.
type Client struct {
	auth     *auth.Manager
	recorder metrics.Recorder
	delay    time.Duration // initial retry delay
}

// NewClient creates a client using the default auth providers.
func NewClient() *Client {
	return &Client{auth: auth.DefaultManager, recorder: metrics.NoopRecorder{}, delay: time.Second}
}

// WithRecorder attaches a metrics recorder (fluent helper).
func (c *Client) WithRecorder(r metrics.Recorder) *Client {
	if r != nil {
		c.recorder = r
	}
	return c
}

// WithRetryDelay overrides the initial backoff delay.
func (c *Client) WithRetryDelay(d time.Duration) *Client {
	c.delay = d
	return c
}

// Clone fetches repo into dest, replacing anything already there.
func (c *Client) Clone(ctx context.Context, repo config.RepositoryConfig, dest string) (CloneResult, error) {
	opts := &git.CloneOptions{URL: repo.URL, Depth: repo.Depth}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
		opts.SingleBranch = true
	}
	authMethod, err := c.auth.CreateAuth(repo.Auth)
	if err != nil {
		return CloneResult{}, err
	}
	opts.Auth = authMethod

	policy := retry.NewPolicy(retry.Mode(repo.RetryBackoff), c.delay, 30*time.Second, repo.MaxRetries)
	start := time.Now()
	var result CloneResult
	err = policy.Do(ctx, func(ctx context.Context) error {
		var cloneErr error
		result, cloneErr = c.cloneOnce(ctx, opts, dest)
		return cloneErr
	}, isRetryable, func(attempt int, err error) {
		observability.WarnContext(ctx, "Retrying clone",
			logfields.URL(repo.URL),
			slog.Int("attempt", attempt),
			logfields.Error(err))
	})
	c.recorder.ObserveCloneDuration(time.Since(start), err == nil)
	if err != nil {
		return CloneResult{}, err
	}

	observability.InfoContext(ctx, "Repository cloned",
		logfields.URL(repo.URL),
		slog.String("branch", repo.Branch),
		slog.String("commit", shortHash(result.Commit)),
		logfields.Path(dest),
		logfields.Since(start))
	return result, nil
}

func (c *Client) cloneOnce(ctx context.Context, opts *git.CloneOptions, dest string) (CloneResult, error) {
	if err := os.RemoveAll(dest); err != nil {
		return CloneResult{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to clear clone destination").
			WithContext("path", dest).
			Build()
	}
	repository, err := git.PlainCloneContext(ctx, dest, false, opts)
	if err != nil {
		return CloneResult{}, ClassifyGitError(err, "clone", opts.URL)
	}
	res := CloneResult{Path: dest}
	if ref, herr := repository.Head(); herr == nil {
		res.Commit = ref.Hash().String()
	}
	return res, nil
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
