// Package metrics exposes refresh counters in the Prometheus text format.
//
// The registry is fed by the refresh orchestrator's cycle hook and served at
// /metrics. It builds client_model metric families directly rather than
// pulling in the full client library.
package metrics
