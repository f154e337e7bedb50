// Package metrics collects per-run Prometheus metrics and writes them in the
// node_exporter textfile format when a run finishes.
package metrics
