package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.ObservePassDuration("app", 150*time.Millisecond)
	pr.IncTransformOutcome("noop", OutcomeNoWork)
	pr.IncTransformOutcome("noop", OutcomeNoWork)
	pr.IncPruned("strip_debug_info")
	pr.SetWorkers(4)
	pr.IncRunOutcome(RunSuccess)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.InDelta(t, 2, values["classforge_transform_results_total"], 0)
	assert.InDelta(t, 4, values["classforge_workers"], 0)
	assert.InDelta(t, 1, values["classforge_run_outcomes_total"], 0)
	assert.InDelta(t, 1, values["classforge_transformer_pruned_total"], 0)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveRunDuration(time.Second)
		pr.IncTransformOutcome("x", OutcomeFailed)
		pr.SetWorkers(1)
	})
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncRunOutcome(RunFatal)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "classforge_run_outcomes_total"))
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncRunOutcome(RunCanceled)
	r = NewPrometheusRecorder(nil)
	r.SetWorkers(2)
}
