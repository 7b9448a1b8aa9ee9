// Package metrics defines the Prometheus instrumentation for the capture
// service: session lifecycle, encoder throughput, silence detection, and the
// monitoring API itself.
package metrics
