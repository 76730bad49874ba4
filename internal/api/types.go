package api

import "time"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State               string     `json:"state"`
	EntryCount          int        `json:"entry_count"`
	Error               *string    `json:"error"`
	LastUpdated         *time.Time `json:"last_updated"`
	StaleSeconds        float64    `json:"stale_seconds"`
	SuccessPct          float64    `json:"success_pct"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	CycleID             string     `json:"cycle_id,omitempty"`
}

// DiagnosticsResponse is the payload for GET /api/v1/diagnostics.
type DiagnosticsResponse struct {
	State string           `json:"state"`
	Hints []DiagnosticHint `json:"hints"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
