package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/classforge/internal/foundation/errors"
)

// Event type names.
const (
	TypeClassTransformed = "ClassTransformed"
	TypeTransformFailed  = "TransformFailed"
	TypeRunCompleted     = "RunCompleted"
)

// TaskPayload is the payload of ClassTransformed and TransformFailed.
type TaskPayload struct {
	Bundle      string `json:"bundle"`
	Class       string `json:"class"`
	Transformer string `json:"transformer"`
	Pass        int    `json:"pass"`
	Error       string `json:"error,omitempty"`
}

// CompletionPayload is the payload of RunCompleted.
type CompletionPayload struct {
	Passes      int   `json:"passes"`
	Transformed int   `json:"transformed"`
	Removed     int   `json:"removed"`
	Renames     int   `json:"renames"`
	Failures    int   `json:"failures"`
	DurationMS  int64 `json:"duration_ms"`
	Canceled    bool  `json:"canceled,omitempty"`
}

// NewClassTransformed builds a ClassTransformed event.
func NewClassTransformed(runID string, p TaskPayload) (*BaseEvent, error) {
	return newEvent(runID, TypeClassTransformed, p)
}

// NewTransformFailed builds a TransformFailed event.
func NewTransformFailed(runID string, p TaskPayload) (*BaseEvent, error) {
	return newEvent(runID, TypeTransformFailed, p)
}

// NewRunCompleted builds a RunCompleted event.
func NewRunCompleted(runID string, p CompletionPayload) (*BaseEvent, error) {
	return newEvent(runID, TypeRunCompleted, p)
}

func newEvent(runID, eventType string, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEventStore, "failed to marshal event payload").
			WithContext("run_id", runID).
			WithContext("event_type", eventType).
			Build()
	}
	return &BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}
