// Package metrics provides build and preview metrics for emailbuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	builder := pipeline.New(cfg, pipeline.WithRecorder(recorder))
//
// The dev server exposes the registry passed to NewPrometheusRecorder at
// /metrics through HTTPHandler.
package metrics
