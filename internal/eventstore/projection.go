package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
	runStatusFailures  = "completed_with_failures"
	runStatusCanceled  = "canceled"
)

// RunSummary is a read model of one run.
type RunSummary struct {
	RunID        string         `json:"run_id"`
	Status       string         `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Passes       int            `json:"passes"`
	Transformed  int            `json:"transformed"`
	Removed      int            `json:"removed"`
	Renames      int            `json:"renames"`
	Failures     int            `json:"failures"`
	Duration     time.Duration  `json:"duration"`
	ChangedBy    map[string]int `json:"changed_by,omitempty"` // transformer -> classes changed
	LastFailures []TaskPayload  `json:"last_failures,omitempty"`
}

// maxFailuresPerRun bounds LastFailures.
const maxFailuresPerRun = 20

// RunHistoryProjection maintains an in-memory view of run history,
// reconstructed from the event store.
type RunHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	runs     map[string]*RunSummary
	history  []*RunSummary // completed runs, newest first
	maxSize  int
	lastSync time.Time
}

// NewRunHistoryProjection creates a projection backed by store.
func NewRunHistoryProjection(store Store, maxHistorySize int) *RunHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		history: make([]*RunSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from every stored event.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	p.history = make([]*RunSummary, 0, p.maxSize)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event as it is emitted.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{
			RunID:     runID,
			Status:    runStatusRunning,
			StartedAt: event.Timestamp(),
			ChangedBy: make(map[string]int),
		}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeClassTransformed:
		var payload TaskPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ChangedBy[payload.Transformer]++
		}

	case TypeTransformFailed:
		var payload TaskPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil && len(summary.LastFailures) < maxFailuresPerRun {
			summary.LastFailures = append(summary.LastFailures, payload)
		}

	case TypeRunCompleted:
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Status = runStatusCompleted
		var payload CompletionPayload
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Passes = payload.Passes
			summary.Transformed = payload.Transformed
			summary.Removed = payload.Removed
			summary.Renames = payload.Renames
			summary.Failures = payload.Failures
			summary.Duration = time.Duration(payload.DurationMS) * time.Millisecond
			switch {
			case payload.Canceled:
				summary.Status = runStatusCanceled
			case payload.Failures > 0:
				summary.Status = runStatusFailures
			}
		}
		p.addToHistoryLocked(summary)
	}
}

func (p *RunHistoryProjection) addToHistoryLocked(summary *RunSummary) {
	for _, h := range p.history {
		if h.RunID == summary.RunID {
			return
		}
	}
	p.history = append([]*RunSummary{summary}, p.history...)
	slices.SortStableFunc(p.history, func(a, b *RunSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneRunsLocked()
}

// pruneRunsLocked drops completed runs that fell out of the bounded history.
func (p *RunHistoryProjection) pruneRunsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.RunID] = struct{}{}
	}
	for id, summary := range p.runs {
		if summary.Status == runStatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.runs, id)
		}
	}
}

// GetHistory returns completed runs, newest first.
func (p *RunHistoryProjection) GetHistory() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]RunSummary, len(p.history))
	for i, h := range p.history {
		out[i] = copySummary(h)
	}
	return out
}

// GetRun returns the summary for one run.
func (p *RunHistoryProjection) GetRun(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, ok := p.runs[runID]
	if !ok {
		return RunSummary{}, false
	}
	return copySummary(summary), true
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *RunHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}

func copySummary(s *RunSummary) RunSummary {
	cp := *s
	cp.ChangedBy = make(map[string]int, len(s.ChangedBy))
	for k, v := range s.ChangedBy {
		cp.ChangedBy[k] = v
	}
	cp.LastFailures = slices.Clone(s.LastFailures)
	return cp
}
