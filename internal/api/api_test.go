package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/livescores/scoreboard/internal/api"
	"github.com/livescores/scoreboard/internal/config"
	"github.com/livescores/scoreboard/internal/notify"
	"github.com/livescores/scoreboard/internal/rank"
	"github.com/livescores/scoreboard/internal/source"
	"github.com/livescores/scoreboard/internal/store"
	"github.com/livescores/scoreboard/pkg/types"
)

// --- test helpers -----------------------------------------------------------

func newStore() *store.Store {
	return store.New(config.DisplayConfig{Title: "Finals", BrandColor: "#6366f1"})
}

// publish ranks name/sum pairs and puts them on display as of at.
func publish(st *store.Store, at time.Time, pairs ...string) {
	var recs []types.RawRecord
	for i := 0; i+1 < len(pairs); i += 2 {
		recs = append(recs, types.RawRecord{Name: pairs[i], Sum: pairs[i+1]})
	}
	st.Publish(store.Result{Seq: st.Begin(), CycleID: "c", Entries: rank.Rank(recs), At: at, SuccessPct: 100})
}

func fail(st *store.Store, msg string, failures int) {
	st.Publish(store.Result{Seq: st.Begin(), Err: msg, ConsecutiveFailures: failures, SuccessPct: 50})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/board -----------------------------------------------------------

func TestBoard(t *testing.T) {
	st := newStore()
	publish(st, time.Now(), "Alice", "50", "Bob", "50", "Cy", "40", "Di", "1")
	h := api.New(st, nil, time.Minute)

	rr := get(t, h, "/api/v1/board")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var b types.Board
	decode(t, rr, &b)
	if b.Title != "Finals" || b.BrandColor != "#6366f1" {
		t.Errorf("display: got %q/%q", b.Title, b.BrandColor)
	}
	if len(b.Entries) != 4 || len(b.Podium) != 3 || len(b.Rest) != 1 {
		t.Errorf("entries/podium/rest: got %d/%d/%d", len(b.Entries), len(b.Podium), len(b.Rest))
	}
	if b.Error != nil {
		t.Errorf("error: got %q, want null", *b.Error)
	}
	if b.Entries[0].Initials != "A" {
		t.Errorf("initials: got %q", b.Entries[0].Initials)
	}
}

func TestBoard_ErrorAndDataTogether(t *testing.T) {
	st := newStore()
	publish(st, time.Now(), "Alice", "42")
	fail(st, "csv export fetch failed: HTTP 500", 1)

	var b types.Board
	decode(t, get(t, api.New(st, nil, time.Minute), "/api/v1/board"), &b)
	if b.Error == nil || len(b.Entries) != 1 {
		t.Errorf("want error and previous entries, got error=%v entries=%d", b.Error, len(b.Entries))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := api.New(newStore(), nil, time.Minute)
	for _, path := range []string{"/api/v1/board", "/api/v1/entries", "/api/v1/entries/1", "/api/v1/health", "/api/v1/diagnostics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, rr.Code)
		}
	}
}

// --- /api/v1/entries ---------------------------------------------------------

func TestEntries(t *testing.T) {
	st := newStore()
	publish(st, time.Now(), "Bob", "30", "Alice", "20", "Cy", "10")

	var got []types.BoardEntry
	decode(t, get(t, api.New(st, nil, time.Minute), "/api/v1/entries"), &got)
	want := []string{"Bob", "Alice", "Cy"}
	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name || got[i].Rank != i+1 {
			t.Errorf("entry %d: got %s/%d, want %s/%d", i, got[i].Name, got[i].Rank, name, i+1)
		}
	}
}

func TestEntries_EmptyIsArray(t *testing.T) {
	rr := get(t, api.New(newStore(), nil, time.Minute), "/api/v1/entries")
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body: got %q, want []", body)
	}
}

func TestEntriesByRank(t *testing.T) {
	st := newStore()
	publish(st, time.Now(), "Alice", "50", "Bob", "50", "Cy", "40")
	h := api.New(st, nil, time.Minute)

	var tied []types.BoardEntry
	decode(t, get(t, h, "/api/v1/entries/1"), &tied)
	if len(tied) != 2 {
		t.Errorf("rank 1: got %d entries, want 2", len(tied))
	}

	cases := map[string]int{
		"/api/v1/entries/2":   http.StatusNotFound, // skipped by the tie
		"/api/v1/entries/3":   http.StatusOK,
		"/api/v1/entries/0":   http.StatusBadRequest,
		"/api/v1/entries/abc": http.StatusBadRequest,
		"/api/v1/entries/":    http.StatusOK,
	}
	for path, want := range cases {
		if rr := get(t, h, path); rr.Code != want {
			t.Errorf("%s: got %d, want %d", path, rr.Code, want)
		}
	}
}

// --- /api/v1/health ----------------------------------------------------------

func TestHealth_States(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*store.Store)
		want  string
	}{
		{"loading", func(*store.Store) {}, types.StateLoading},
		{"ok", func(st *store.Store) { publish(st, time.Now(), "Alice", "1") }, types.StateOK},
		{"empty", func(st *store.Store) { publish(st, time.Now()) }, types.StateEmpty},
		{"error", func(st *store.Store) { fail(st, "boom", 1) }, types.StateError},
		{"stale", func(st *store.Store) { publish(st, time.Now().Add(-time.Hour), "Alice", "1") }, types.StateStale},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newStore()
			tc.setup(st)

			var resp api.HealthResponse
			decode(t, get(t, api.New(st, nil, time.Minute), "/api/v1/health"), &resp)
			if resp.State != tc.want {
				t.Errorf("State: got %q, want %q", resp.State, tc.want)
			}
		})
	}
}

func TestHealth_Fields(t *testing.T) {
	st := newStore()
	publish(st, time.Now().Add(-90*time.Second), "Alice", "1", "Bob", "2")
	fail(st, "sheets api fetch failed: HTTP 403", 3)

	var resp api.HealthResponse
	decode(t, get(t, api.New(st, nil, time.Hour), "/api/v1/health"), &resp)
	if resp.EntryCount != 2 {
		t.Errorf("EntryCount: got %d, want 2", resp.EntryCount)
	}
	if resp.ConsecutiveFailures != 3 {
		t.Errorf("ConsecutiveFailures: got %d, want 3", resp.ConsecutiveFailures)
	}
	if resp.StaleSeconds < 90 {
		t.Errorf("StaleSeconds: got %.0f, want >= 90", resp.StaleSeconds)
	}
	if resp.Error == nil || *resp.Error != "sheets api fetch failed: HTTP 403" {
		t.Errorf("Error: got %v", resp.Error)
	}
}

// --- /api/v1/diagnostics -----------------------------------------------------

func hintKeys(t *testing.T, st *store.Store, staleAfter time.Duration) []string {
	t.Helper()
	var resp api.DiagnosticsResponse
	decode(t, get(t, api.New(st, nil, staleAfter), "/api/v1/diagnostics"), &resp)
	keys := make([]string, len(resp.Hints))
	for i, h := range resp.Hints {
		keys[i] = h.Key
	}
	return keys
}

func TestDiagnostics(t *testing.T) {
	cases := []struct {
		name       string
		setup      func(*store.Store)
		staleAfter time.Duration
		want       []string
	}{
		{"loading", func(*store.Store) {}, time.Minute, []string{"warming_up"}},
		{"healthy", func(st *store.Store) { publish(st, time.Now(), "Alice", "1") }, time.Minute, []string{}},
		{"not configured", func(st *store.Store) { fail(st, source.ErrNotConfigured.Error(), 1) }, time.Minute,
			[]string{"not_configured"}},
		{"fetch failed keeps data", func(st *store.Store) {
			publish(st, time.Now(), "Alice", "1")
			fail(st, "boom", 2)
		}, time.Minute, []string{"fetch_failed"}},
		{"empty sheet", func(st *store.Store) { publish(st, time.Now()) }, time.Minute, []string{"no_data"}},
		{"stale", func(st *store.Store) { publish(st, time.Now().Add(-time.Hour), "Alice", "1") }, time.Minute,
			[]string{"stale_data"}},
		{"unparsed and unnamed", func(st *store.Store) { publish(st, time.Now(), "Alice", "N/A", "", "3") }, time.Minute,
			[]string{"unparsed_scores", "blank_names"}},
		{"critical first", func(st *store.Store) {
			publish(st, time.Now().Add(-time.Hour), "Alice", "1")
			fail(st, "boom", 1)
		}, time.Minute, []string{"fetch_failed", "stale_data"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newStore()
			tc.setup(st)
			got := hintKeys(t, st, tc.staleAfter)
			if len(got) != len(tc.want) {
				t.Fatalf("hints: got %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("hint %d: got %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

// --- /api/v1/notifications ---------------------------------------------------

type fixedNotes []notify.Notification

func (f fixedNotes) Active() []notify.Notification { return f }

func TestNotifications(t *testing.T) {
	fired := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	notes := fixedNotes{
		{ID: "leader_change:2", Rule: "leader_change", State: notify.StateLeader, Message: "New leader: Bob with 60", FiredAt: fired.Add(time.Minute)},
		{ID: "empty:1", Rule: "empty", State: notify.StateFiring, Severity: "warning", FiredAt: fired},
	}
	h := api.New(newStore(), notes, time.Minute)

	var got []notify.Notification
	decode(t, get(t, h, "/api/v1/notifications"), &got)
	if len(got) != 2 || got[0].Rule != "leader_change" || got[1].State != notify.StateFiring {
		t.Errorf("notifications: got %+v", got)
	}
}

func TestNotifications_FromEngine(t *testing.T) {
	e := notify.New(config.NotifyConfig{Rules: []config.NotifyRule{
		{Name: "empty", Condition: "entry_count < 1"},
	}}, time.Minute)
	st := newStore()
	publish(st, time.Now())
	e.Evaluate(st.Snapshot())

	var got []notify.Notification
	decode(t, get(t, api.New(st, e, time.Minute), "/api/v1/notifications"), &got)
	if len(got) != 1 || got[0].Rule != "empty" || got[0].State != notify.StateFiring {
		t.Errorf("notifications: got %+v", got)
	}
}

func TestNotifications_NoneConfigured(t *testing.T) {
	rr := get(t, api.New(newStore(), nil, time.Minute), "/api/v1/notifications")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body: got %q, want empty list", body)
	}
}

func TestNotifications_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	api.New(newStore(), nil, time.Minute).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/notifications", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}
