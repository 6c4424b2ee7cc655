package transform

import (
	"log/slog"

	"git.home.luguber.info/inful/classforge/internal/logfields"
)

// Event describes one (class, transformer, pass) task.
type Event struct {
	RunID       string
	Bundle      string
	Class       string
	Transformer string
	Pass        int
	Err         error
}

// Feedback observes a run and may steer it. Implementations must be safe for
// concurrent use: task callbacks fire from worker goroutines.
type Feedback interface {
	// HasRequestedCancellation is polled at the start of every task. Once it
	// returns true the remaining tasks are skipped and the run ends early
	// with a partial Result.
	HasRequestedCancellation() bool
	// ShouldTransform can veto a single task.
	ShouldTransform(ev Event) bool
	OnTransformed(ev Event)
	OnTransformedWithoutWork(ev Event)
	OnTransformFailure(ev Event)
	// OnCompletion fires once after the result is built.
	OnCompletion(s Summary)
}

// DefaultFeedback permits everything and ignores every callback. Embed it to
// implement only the callbacks you need.
type DefaultFeedback struct{}

func (DefaultFeedback) HasRequestedCancellation() bool { return false }
func (DefaultFeedback) ShouldTransform(Event) bool     { return true }
func (DefaultFeedback) OnTransformed(Event)            {}
func (DefaultFeedback) OnTransformedWithoutWork(Event) {}
func (DefaultFeedback) OnTransformFailure(Event)       {}
func (DefaultFeedback) OnCompletion(Summary)           {}

// MultiFeedback fans callbacks out to every member. A task runs only when all
// members allow it; cancellation is requested when any member requests it.
type MultiFeedback []Feedback

func (m MultiFeedback) HasRequestedCancellation() bool {
	for _, f := range m {
		if f.HasRequestedCancellation() {
			return true
		}
	}
	return false
}

func (m MultiFeedback) ShouldTransform(ev Event) bool {
	for _, f := range m {
		if !f.ShouldTransform(ev) {
			return false
		}
	}
	return true
}

func (m MultiFeedback) OnTransformed(ev Event) {
	for _, f := range m {
		f.OnTransformed(ev)
	}
}

func (m MultiFeedback) OnTransformedWithoutWork(ev Event) {
	for _, f := range m {
		f.OnTransformedWithoutWork(ev)
	}
}

func (m MultiFeedback) OnTransformFailure(ev Event) {
	for _, f := range m {
		f.OnTransformFailure(ev)
	}
}

func (m MultiFeedback) OnCompletion(s Summary) {
	for _, f := range m {
		f.OnCompletion(s)
	}
}

// LoggingFeedback logs task outcomes. Changes log at debug, failures at warn.
type LoggingFeedback struct {
	DefaultFeedback
	Logger *slog.Logger
}

// NewLoggingFeedback returns a LoggingFeedback; nil uses slog.Default.
func NewLoggingFeedback(logger *slog.Logger) *LoggingFeedback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingFeedback{Logger: logger}
}

func (l *LoggingFeedback) OnTransformed(ev Event) {
	l.Logger.Debug("Transformed class", eventAttrs(ev)...)
}

func (l *LoggingFeedback) OnTransformFailure(ev Event) {
	l.Logger.Warn("Transform failed", append(eventAttrs(ev), logfields.Error(ev.Err))...)
}

func (l *LoggingFeedback) OnCompletion(s Summary) {
	l.Logger.Info("Transformation complete",
		logfields.RunID(s.RunID),
		logfields.Pass(s.Passes),
		slog.Int("transformed", s.Transformed),
		slog.Int("removed", s.Removed),
		slog.Int("failures", s.Failures),
		slog.Bool("canceled", s.Canceled),
		logfields.Duration(s.Duration))
}

func eventAttrs(ev Event) []any {
	return []any{
		logfields.RunID(ev.RunID),
		logfields.Bundle(ev.Bundle),
		logfields.Class(ev.Class),
		logfields.Transformer(ev.Transformer),
		logfields.Pass(ev.Pass),
	}
}
