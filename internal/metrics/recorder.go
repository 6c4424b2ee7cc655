package metrics

import "time"

// TransformOutcome labels the result of one transform task.
type TransformOutcome string

const (
	OutcomeTransformed TransformOutcome = "transformed"
	OutcomeNoWork      TransformOutcome = "no_work"
	OutcomeFailed      TransformOutcome = "failed"
	OutcomeSkipped     TransformOutcome = "skipped"
)

// RunOutcome labels how a whole run ended.
type RunOutcome string

const (
	RunSuccess      RunOutcome = "success"
	RunSoftFailures RunOutcome = "soft_failures"
	RunFatal        RunOutcome = "fatal"
	RunCanceled     RunOutcome = "canceled"
)

// Recorder defines observability hooks for pipeline runs.
type Recorder interface {
	ObserveRunDuration(d time.Duration)
	ObservePassDuration(bundle string, d time.Duration)
	IncTransformOutcome(transformer string, outcome TransformOutcome)
	IncPruned(transformer string)
	SetWorkers(n int)
	IncRunOutcome(outcome RunOutcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) ObservePassDuration(string, time.Duration) {}
func (NoopRecorder) IncTransformOutcome(string, TransformOutcome) {}
func (NoopRecorder) IncPruned(string) {}
func (NoopRecorder) SetWorkers(int) {}
func (NoopRecorder) IncRunOutcome(RunOutcome) {}
