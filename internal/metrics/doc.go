// Package metrics provides build metrics for symdoc runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks:
//
//	svc := pipeline.NewService(cfg, logger) // NoopRecorder
//	svc = svc.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A PrometheusRecorder registers its collectors on the registry it is given.
// The registry can be written as a node_exporter textfile after a batch build
// (WriteTextfile) or served over HTTP while watching (HTTPHandler).
package metrics
