// Package metrics provides pipeline observability for classforge runs.
//
// Components receive a Recorder and default to NoopRecorder, so no call site
// needs a nil check:
//
//	applier := transform.NewApplier(ws, registry, codec, opts).
//	    WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// PrometheusRecorder registers its collectors on the supplied registry and
// HTTPHandler exposes that registry for scraping.
package metrics
