// Package api serves the REST view of the scoreboard under /api/v1/.
//
// Routes:
//
//	GET /api/v1/board          full board: display settings, entries, podium, status
//	GET /api/v1/entries        ranked entries only
//	GET /api/v1/entries/{rank} entries sharing one rank
//	GET /api/v1/health         loading | ok | empty | error | stale
//	GET /api/v1/diagnostics    plain-language hints about the data source
//
// Every response is JSON. Other methods get 405.
package api
