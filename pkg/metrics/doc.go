// Package metrics provides Prometheus-compatible metrics for the adapter.
//
// It implements the Prometheus text exposition format (text/plain;
// version=0.0.4) for counters, gauges and histograms. All metrics are safe
// for concurrent use.
//
// # Default Metrics
//
//   - soapmap_requests_total: adapter requests (labels: collection, action, outcome)
//   - soapmap_request_duration_seconds: request latency (labels: collection, action)
//   - soapmap_connections: registered connections
//
// # Usage
//
//	registry := metrics.Init()
//	vec, _ := metrics.RequestsTotal.WithLabels("station", "find", metrics.OutcomeOK)
//	_ = vec.Inc()
//	_, _ = registry.WriteTo(os.Stdout)
package metrics
