package metrics

import "time"

// ResultLabel enumerates plugin result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildSuccess  BuildOutcomeLabel = "success"
	BuildFailed   BuildOutcomeLabel = "failed"
	BuildCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for builds and generator plugins.
type Recorder interface {
	ObservePluginDuration(plugin string, d time.Duration)
	IncPluginResult(plugin string, result ResultLabel)
	AddPluginPages(plugin string, n int)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePluginDuration(string, time.Duration) {}
func (NoopRecorder) IncPluginResult(string, ResultLabel)         {}
func (NoopRecorder) AddPluginPages(string, int)                  {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)          {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)           {}
