// Package refresh drives the fetch-and-rank pipeline on a fixed cadence.
//
// An Orchestrator runs one cycle immediately on Run, then one per interval
// until its context is cancelled. Each cycle fetches from the configured
// source, ranks the records and publishes the outcome to the store. Failures
// are converted to a single message at this boundary; the store keeps the
// last good entries visible alongside it.
//
// Cycles of one Run loop execute sequentially. Each also reserves a store
// sequence number before fetching, so a cycle started by other means that
// finishes late cannot overwrite a newer board.
package refresh
