package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/livescores/scoreboard/internal/notify"
	"github.com/livescores/scoreboard/internal/store"
	"github.com/livescores/scoreboard/pkg/types"
)

// Notifications lists recent notifications, newest first. *notify.Engine
// implements it.
type Notifications interface {
	Active() []notify.Notification
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store      *store.Store
	notes      Notifications
	mux        *http.ServeMux
	staleAfter time.Duration
	now        func() time.Time
}

// New creates a Handler reading from st and notes and registers all routes.
// notes may be nil. A board whose last successful refresh is older than
// staleAfter reports "stale".
func New(st *store.Store, notes Notifications, staleAfter time.Duration) http.Handler {
	h := &Handler{store: st, notes: notes, mux: http.NewServeMux(), staleAfter: staleAfter, now: time.Now}

	h.mux.HandleFunc("/api/v1/board", h.board)
	h.mux.HandleFunc("/api/v1/entries", h.entries)
	h.mux.HandleFunc("/api/v1/entries/", h.entriesByRank) // subtree, extracts {rank}
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/diagnostics", h.diagnostics)
	h.mux.HandleFunc("/api/v1/notifications", h.notifications)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// board returns GET /api/v1/board.
func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.store.Snapshot())
}

// entries returns GET /api/v1/entries.
func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.store.Snapshot().Entries)
}

// entriesByRank returns GET /api/v1/entries/{rank}. Ties share a rank, so the
// result is a list.
func (h *Handler) entriesByRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/entries/")
	if raw == "" {
		h.entries(w, r)
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		jsonErr(w, http.StatusBadRequest, "rank must be a positive integer")
		return
	}

	out := make([]types.BoardEntry, 0, 1)
	for _, e := range h.store.Snapshot().Entries {
		if e.Rank == n {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		jsonErr(w, http.StatusNotFound, "no entry with that rank")
		return
	}
	jsonResp(w, http.StatusOK, out)
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	b := h.store.Snapshot()
	now := h.now()
	jsonResp(w, http.StatusOK, HealthResponse{
		State:               b.State(now, h.staleAfter),
		EntryCount:          len(b.Entries),
		Error:               b.Error,
		LastUpdated:         b.LastUpdated,
		StaleSeconds:        b.Age(now).Seconds(),
		SuccessPct:          b.SuccessPct,
		ConsecutiveFailures: b.ConsecutiveFailures,
		CycleID:             b.CycleID,
	})
}

// diagnostics returns GET /api/v1/diagnostics.
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	b := h.store.Snapshot()
	now := h.now()
	jsonResp(w, http.StatusOK, DiagnosticsResponse{
		State: b.State(now, h.staleAfter),
		Hints: computeDiagnostics(b, now, h.staleAfter),
	})
}

// notifications returns GET /api/v1/notifications: firing notifications and
// recent history.
func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out := []notify.Notification{}
	if h.notes != nil {
		out = append(out, h.notes.Active()...)
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
