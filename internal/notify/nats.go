// Package notify publishes run events to NATS subscribers.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/logfields"
	"git.home.luguber.info/inful/classforge/internal/retry"
	"git.home.luguber.info/inful/classforge/internal/transform"
)

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// Message is the JSON body of every published event.
type Message struct {
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	Bundle      string    `json:"bundle,omitempty"`
	Class       string    `json:"class,omitempty"`
	Transformer string    `json:"transformer,omitempty"`
	Pass        int       `json:"pass,omitempty"`
	Error       string    `json:"error,omitempty"`
	Summary     *Summary  `json:"summary,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Summary is the completion payload.
type Summary struct {
	Passes      int   `json:"passes"`
	Transformed int   `json:"transformed"`
	Removed     int   `json:"removed"`
	Renames     int   `json:"renames"`
	Failures    int   `json:"failures"`
	DurationMS  int64 `json:"duration_ms"`
	Canceled    bool  `json:"canceled,omitempty"`
}

// Message kinds, appended to the base subject.
const (
	KindTransformed = "transformed"
	KindFailed      = "failed"
	KindCompleted   = "completed"
)

// Publisher is a transform.Feedback that publishes to "<subject>.<kind>".
// Publish errors are logged; a broker outage never fails a run.
type Publisher struct {
	transform.DefaultFeedback

	conn    Conn
	subject string
	logger  *slog.Logger

	// PublishTransformed enables one message per changed class.
	PublishTransformed bool
}

// Connect dials url, retrying the initial connection with policy, and
// returns a Publisher owning the connection.
func Connect(ctx context.Context, url, subject string, policy retry.Policy, logger *slog.Logger) (*Publisher, error) {
	var conn *nats.Conn
	err := retry.Do(ctx, policy, func() error {
		var err error
		conn, err = nats.Connect(url,
			nats.Name("classforge"),
			nats.MaxReconnects(5),
			nats.ReconnectWait(time.Second),
		)
		return err
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	p := NewPublisher(conn, subject, logger)
	p.logger.Info("NATS publisher connected", slog.String("url", url), slog.String("subject", subject))
	return p, nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, subject string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}
}

func (p *Publisher) OnTransformed(ev transform.Event) {
	if p.PublishTransformed {
		p.publish(taskMessage(KindTransformed, ev))
	}
}

func (p *Publisher) OnTransformFailure(ev transform.Event) {
	p.publish(taskMessage(KindFailed, ev))
}

// OnCompletion publishes the summary and flushes so the message leaves
// before the process exits.
func (p *Publisher) OnCompletion(s transform.Summary) {
	p.publish(Message{
		RunID: s.RunID,
		Kind:  KindCompleted,
		Summary: &Summary{
			Passes:      s.Passes,
			Transformed: s.Transformed,
			Removed:     s.Removed,
			Renames:     s.Renames,
			Failures:    s.Failures,
			DurationMS:  s.Duration.Milliseconds(),
			Canceled:    s.Canceled,
		},
	})
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("Failed to flush NATS connection", logfields.Error(err))
	}
}

// Close closes the underlying connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

func (p *Publisher) publish(m Message) {
	m.Timestamp = time.Now()
	data, err := json.Marshal(m)
	if err != nil {
		p.logger.Warn("Failed to marshal event", logfields.Error(err))
		return
	}
	subject := p.subject + "." + m.Kind
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish event",
			logfields.RunID(m.RunID),
			slog.String("subject", subject),
			logfields.Error(err))
	}
}

func taskMessage(kind string, ev transform.Event) Message {
	m := Message{
		RunID:       ev.RunID,
		Kind:        kind,
		Bundle:      ev.Bundle,
		Class:       ev.Class,
		Transformer: ev.Transformer,
		Pass:        ev.Pass,
	}
	if ev.Err != nil {
		m.Error = ev.Err.Error()
	}
	return m
}
