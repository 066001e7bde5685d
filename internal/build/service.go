package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/postbuilder/internal/config"
	"git.home.luguber.info/inful/postbuilder/internal/index"
)

// BuildService is the canonical interface for executing index builds.
type BuildService interface {
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	Options BuildOptions
}

// BuildOptions provides optional build behavior modifiers.
type BuildOptions struct {
	// DryRun builds the index but writes no artifacts and publishes nothing.
	DryRun bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	Status  BuildStatus
	BuildID string

	// Records is the content index as written, in filename order.
	Records  []index.Record
	Eligible int
	Failures []index.Failure
	// Warnings counts documents indexed with degraded data.
	Warnings int

	// IndexPath and FeedPath are empty when the artifact was not written.
	IndexPath string
	FeedPath  string
	// FeedSkipReason explains a missing feed artifact.
	FeedSkipReason string

	// Commit is the cloned HEAD when the source came from a repository.
	Commit string

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time

	// Skipped indicates no artifacts were produced because the source
	// directory does not exist.
	Skipped    bool
	SkipReason string
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates every document was indexed cleanly.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusWarning indicates artifacts were written but some documents
	// failed or were indexed with degraded data.
	BuildStatusWarning BuildStatus = "warning"

	// BuildStatusFailed indicates the build encountered a fatal error.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusSkipped indicates the source directory was missing.
	BuildStatusSkipped BuildStatus = "skipped"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	switch s {
	case BuildStatusSuccess, BuildStatusWarning, BuildStatusFailed, BuildStatusSkipped, BuildStatusCancelled:
		return true
	}
	return false
}

// IsSuccess returns true if the build did not fail.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusWarning || s == BuildStatusSkipped
}
