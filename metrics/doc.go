// Package metrics publishes dispatch and supervision counters in
// Prometheus format. The collector keeps its own registry so embedding
// applications can mount it wherever they serve metrics without
// colliding with their own instrumentation.
package metrics
