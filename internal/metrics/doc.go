// Package metrics records build metrics behind a Recorder interface.
//
// Components receive a Recorder and default to NoopRecorder, so metrics can be
// switched on without nil checks at call sites:
//
//	gen := build.NewGenerator(cfg, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The preview server exposes the Prometheus registry at /metrics.
package metrics
