// Package server provides the HTTP monitoring API for the recorder: health,
// current session state, sanitized configuration, and Prometheus metrics.
package server
