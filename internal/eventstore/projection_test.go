package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classforge/internal/transform"
)

func TestRunHistoryProjectionRebuild(t *testing.T) {
	store := newTestStore(t)
	journal := NewJournal(t.Context(), store, nil)

	journal.OnTransformed(transform.Event{RunID: "r1", Class: "a/A", Transformer: "strip_debug"})
	journal.OnTransformed(transform.Event{RunID: "r1", Class: "a/B", Transformer: "strip_debug"})
	journal.OnTransformFailure(transform.Event{RunID: "r1", Class: "a/C", Transformer: "noop"})
	journal.OnCompletion(transform.Summary{RunID: "r1", Passes: 3, Transformed: 2, Failures: 1, Duration: time.Second})
	journal.OnTransformed(transform.Event{RunID: "r2", Class: "a/A", Transformer: "add_marker_field"})

	p := NewRunHistoryProjection(store, 10)
	require.NoError(t, p.Rebuild(t.Context()))
	assert.False(t, p.LastSyncTime().IsZero())

	r1, ok := p.GetRun("r1")
	require.True(t, ok)
	assert.Equal(t, runStatusFailures, r1.Status)
	assert.Equal(t, 3, r1.Passes)
	assert.Equal(t, 2, r1.ChangedBy["strip_debug"])
	require.Len(t, r1.LastFailures, 1)
	assert.Equal(t, "a/C", r1.LastFailures[0].Class)
	assert.Equal(t, time.Second, r1.Duration)
	require.NotNil(t, r1.CompletedAt)

	r2, ok := p.GetRun("r2")
	require.True(t, ok)
	assert.Equal(t, runStatusRunning, r2.Status)

	history := p.GetHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "r1", history[0].RunID)
}

func TestRunHistoryProjectionLiveApplyAndBound(t *testing.T) {
	store := newTestStore(t)
	p := NewRunHistoryProjection(store, 2)
	journal := NewJournal(t.Context(), store, nil)
	journal.OnEvent(p.Apply)

	for _, id := range []string{"r1", "r2", "r3"} {
		journal.OnCompletion(transform.Summary{RunID: id, Passes: 1})
		time.Sleep(2 * time.Millisecond)
	}

	history := p.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "r3", history[0].RunID)
	assert.Equal(t, "r2", history[1].RunID)
	assert.Equal(t, runStatusCompleted, history[0].Status)

	_, ok := p.GetRun("r1")
	assert.False(t, ok)
}

func TestRunHistoryProjectionCanceledRun(t *testing.T) {
	store := newTestStore(t)
	p := NewRunHistoryProjection(store, 10)
	journal := NewJournal(t.Context(), store, nil)
	journal.OnEvent(p.Apply)

	journal.OnCompletion(transform.Summary{RunID: "r1", Passes: 1, Transformed: 2, Failures: 1, Canceled: true})

	r1, ok := p.GetRun("r1")
	require.True(t, ok)
	assert.Equal(t, runStatusCanceled, r1.Status)
	assert.Equal(t, 2, r1.Transformed)
}

func TestRunHistoryProjectionReturnsCopies(t *testing.T) {
	p := NewRunHistoryProjection(newTestStore(t), 0)
	ev, err := NewClassTransformed("r1", TaskPayload{Transformer: "noop"})
	require.NoError(t, err)
	p.Apply(ev)

	got, ok := p.GetRun("r1")
	require.True(t, ok)
	got.ChangedBy["noop"] = 99

	again, _ := p.GetRun("r1")
	assert.Equal(t, 1, again.ChangedBy["noop"])
}
