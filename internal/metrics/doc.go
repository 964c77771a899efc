// Package metrics records build and plugin metrics.
//
// Components receive a Recorder. NoopRecorder is the default and does
// nothing; PrometheusRecorder collects into a Prometheus registry that can be
// scraped over HTTP (watch mode) or written to a node-exporter textfile
// after a one-shot build:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	runner := build.NewRunner(cfg, registry).WithRecorder(rec)
//	...
//	_ = rec.WriteTextfile("/var/lib/node_exporter/sitekit.prom")
package metrics
