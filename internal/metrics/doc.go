// Package metrics records per-session Prometheus metrics.
//
// interviewcoach is a short-lived CLI, so instead of serving /metrics it
// writes the registry to a textfile that node_exporter's textfile collector
// can pick up.
package metrics
