package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	require.NotPanics(t, func() {
		r.ObserveStageDuration("parse", time.Millisecond)
		r.ObserveBuildDuration(time.Second)
		r.IncStageResult("parse", ResultWarning)
		r.IncDocumentResult(ResultFailed)
		r.SetIndexedDocuments(3)
		r.IncBuildOutcome(BuildOutcomeSkipped)
		r.ObserveCloneDuration(time.Second, false)
	})
}
