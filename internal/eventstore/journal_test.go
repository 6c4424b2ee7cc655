package eventstore

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classforge/internal/retry"
	"git.home.luguber.info/inful/classforge/internal/transform"
)

func TestJournalRecordsTaskAndCompletionEvents(t *testing.T) {
	store := newTestStore(t)
	journal := NewJournal(t.Context(), store, nil)

	var seen []string
	journal.OnEvent(func(e Event) { seen = append(seen, e.Type()) })

	journal.OnTransformed(transform.Event{RunID: testRunID, Bundle: "main", Class: "a/A", Transformer: "strip_debug", Pass: 1})
	journal.OnTransformedWithoutWork(transform.Event{RunID: testRunID, Class: "a/B", Transformer: "strip_debug", Pass: 1})
	journal.OnTransformFailure(transform.Event{RunID: testRunID, Class: "a/C", Transformer: "noop", Pass: 2, Err: errors.New("boom")})
	journal.OnCompletion(transform.Summary{RunID: testRunID, Passes: 2, Transformed: 1, Failures: 1, Duration: 1500 * time.Millisecond})

	events, err := store.GetByRunID(t.Context(), testRunID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{TypeClassTransformed, TypeTransformFailed, TypeRunCompleted}, seen)

	var failed TaskPayload
	require.NoError(t, json.Unmarshal(events[1].Payload(), &failed))
	assert.Equal(t, "a/C", failed.Class)
	assert.Equal(t, "boom", failed.Error)
	assert.Equal(t, 2, failed.Pass)

	var done CompletionPayload
	require.NoError(t, json.Unmarshal(events[2].Payload(), &done))
	assert.Equal(t, int64(1500), done.DurationMS)
	assert.Equal(t, 1, done.Failures)
}

func TestJournalSurvivesStoreErrors(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	journal := NewJournal(t.Context(), store, nil).WithRetry(retry.NewPolicy(retry.Fixed, time.Millisecond, time.Millisecond, 1))
	called := false
	journal.OnEvent(func(Event) { called = true })

	assert.NotPanics(t, func() {
		journal.OnTransformed(transform.Event{RunID: testRunID, Class: "a/A"})
	})
	assert.False(t, called)
}
