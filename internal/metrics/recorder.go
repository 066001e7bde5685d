package metrics

import "time"

// ResultLabel enumerates per-stage and per-document result categories.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFailed  ResultLabel = "failed"
)

// BuildOutcomeLabel is the final status of an index build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess BuildOutcomeLabel = "success"
	BuildOutcomeWarning BuildOutcomeLabel = "warning"
	BuildOutcomeFailed  BuildOutcomeLabel = "failed"
	BuildOutcomeSkipped BuildOutcomeLabel = "skipped"
)

// Recorder defines observability hooks for index builds. All methods must be
// safe for concurrent use; document results are reported from worker goroutines.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncDocumentResult(result ResultLabel)
	SetIndexedDocuments(n int)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObserveCloneDuration(d time.Duration, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncDocumentResult(ResultLabel)              {}
func (NoopRecorder) SetIndexedDocuments(int)                    {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) ObserveCloneDuration(time.Duration, bool)   {}
