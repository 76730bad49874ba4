// Package store holds the single "currently displayed" board state.
//
// The refresh orchestrator is the only writer. Every cycle reserves a
// sequence number with Begin before fetching; Publish rejects any result
// whose sequence is older than the one already on display, so a slow response
// can never regress the board to an older snapshot.
//
// Readers take immutable Board snapshots and may Subscribe to change
// notifications.
package store
