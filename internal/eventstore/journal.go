package eventstore

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/classforge/internal/logfields"
	"git.home.luguber.info/inful/classforge/internal/retry"
	"git.home.luguber.info/inful/classforge/internal/transform"
)

// Journal is a transform.Feedback that appends task outcomes and the run
// summary to a Store. Failed appends are retried, then logged; they never affect the run.
type Journal struct {
	transform.DefaultFeedback

	ctx     context.Context
	store   Store
	logger  *slog.Logger
	policy  retry.Policy
	onEvent func(Event)
}

// NewJournal returns a Journal writing to store. ctx bounds every append.
func NewJournal(ctx context.Context, store Store, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{ctx: ctx, store: store, logger: logger, policy: retry.DefaultPolicy()}
}

// WithRetry replaces the policy used for failed appends.
func (j *Journal) WithRetry(p retry.Policy) *Journal {
	j.policy = p
	return j
}

// OnEvent registers fn to observe every event after it has been stored, for
// example a live RunHistoryProjection. fn is called from worker goroutines.
func (j *Journal) OnEvent(fn func(Event)) { j.onEvent = fn }

func (j *Journal) OnTransformed(ev transform.Event) {
	j.record(NewClassTransformed(ev.RunID, taskPayload(ev)))
}

func (j *Journal) OnTransformFailure(ev transform.Event) {
	j.record(NewTransformFailed(ev.RunID, taskPayload(ev)))
}

func (j *Journal) OnCompletion(s transform.Summary) {
	j.record(NewRunCompleted(s.RunID, CompletionPayload{
		Passes:      s.Passes,
		Transformed: s.Transformed,
		Removed:     s.Removed,
		Renames:     s.Renames,
		Failures:    s.Failures,
		DurationMS:  s.Duration.Milliseconds(),
		Canceled:    s.Canceled,
	}))
}

func (j *Journal) record(ev *BaseEvent, err error) {
	if err == nil {
		err = retry.Do(j.ctx, j.policy, func() error {
			return j.store.Append(j.ctx, ev.RunID(), ev.Type(), ev.Payload(), ev.Metadata())
		})
	}
	if err != nil {
		j.logger.Warn("Failed to journal run event", logfields.Error(err))
		return
	}
	if j.onEvent != nil {
		j.onEvent(ev)
	}
}

func taskPayload(ev transform.Event) TaskPayload {
	p := TaskPayload{
		Bundle:      ev.Bundle,
		Class:       ev.Class,
		Transformer: ev.Transformer,
		Pass:        ev.Pass,
	}
	if ev.Err != nil {
		p.Error = ev.Err.Error()
	}
	return p
}
