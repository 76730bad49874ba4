package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/livescores/scoreboard/internal/config"
	"github.com/livescores/scoreboard/pkg/types"
)

// --- helpers ----------------------------------------------------------------

func board(pairs ...interface{}) types.Board {
	b := types.Board{SuccessPct: 100}
	now := time.Now()
	b.LastUpdated = &now
	rank := 0
	var prev float64
	for i := 0; i+1 < len(pairs); i += 2 {
		score := pairs[i+1].(float64)
		if i == 0 || score != prev {
			rank = i/2 + 1
		}
		prev = score
		b.Entries = append(b.Entries, types.BoardEntry{RankedEntry: types.RankedEntry{
			RawRecord: types.RawRecord{Name: pairs[i].(string)},
			ScoreNum:  score,
			Rank:      rank,
		}})
	}
	return b
}

func withSeq(seq uint64, b types.Board) types.Board {
	b.Seq = seq
	return b
}

func failing(b types.Board, msg string, failures int) types.Board {
	b.Error = &msg
	b.ConsecutiveFailures = failures
	return b
}

type recorder struct {
	mu     sync.Mutex
	bodies []map[string]interface{}
}

func (r *recorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Errorf("webhook body is not JSON: %s", raw)
		}
		r.mu.Lock()
		r.bodies = append(r.bodies, m)
		r.mu.Unlock()
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func (r *recorder) body(i int) map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies[i]
}

// newEngine returns an engine delivering to a recording webhook of typ.
func newEngine(t *testing.T, typ string, cfg config.NotifyConfig) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(rec.handler(t))
	t.Cleanup(srv.Close)
	t.Setenv("SCOREBOARD_TEST_WEBHOOK", srv.URL)
	cfg.Webhooks = []config.WebhookConfig{{Type: typ, URLEnv: "SCOREBOARD_TEST_WEBHOOK"}}
	return New(cfg, time.Minute), rec
}

// --- conditions -------------------------------------------------------------

func TestEvalCondition(t *testing.T) {
	now := time.Now()
	old := now.Add(-2 * time.Minute)
	b := board("Alice", 50.0, "Bob", 40.0)
	stale := board("Alice", 50.0)
	stale.LastUpdated = &old
	errored := failing(board("Alice", 1.0), "boom", 3)

	cases := []struct {
		cond      string
		b         types.Board
		wantFire  bool
		wantValue float64
	}{
		{"entry_count < 1", b, false, 2},
		{"entry_count == 2", b, true, 2},
		{"top_score >= 50", b, true, 50},
		{"top_score > 50", b, false, 50},
		{"stale_seconds > 60", stale, true, 120},
		{"consecutive_failures >= 3", errored, true, 3},
		{"success_pct < 80", b, false, 100},
		{"state == ok", b, true, 0},
		{"state == stale", stale, true, 0},
		{"state == error", errored, true, 0},
		{"state != ok", errored, true, 0},
		{"state > ok", b, false, 0},
		{"unknown_field > 1", b, false, 0},
		{"top_score > abc", b, false, 0},
		{"top_score >", b, false, 0},
	}
	for _, tc := range cases {
		fires, v := evalCondition(tc.cond, tc.b, now, time.Minute)
		if fires != tc.wantFire {
			t.Errorf("%q: fires got %v, want %v", tc.cond, fires, tc.wantFire)
		}
		if strings.HasPrefix(tc.cond, "stale_seconds") {
			if v < tc.wantValue {
				t.Errorf("%q: value got %.0f, want >= %.0f", tc.cond, v, tc.wantValue)
			}
		} else if v != tc.wantValue {
			t.Errorf("%q: value got %v, want %v", tc.cond, v, tc.wantValue)
		}
	}
}

// --- rule transitions -------------------------------------------------------

func TestEvaluate_FireAndResolve(t *testing.T) {
	e, rec := newEngine(t, "http", config.NotifyConfig{Rules: []config.NotifyRule{
		{Name: "fetch-failing", Condition: "consecutive_failures >= 2", Severity: "critical"},
	}})

	e.Evaluate(failing(board("Alice", 1.0), "boom", 1))
	e.Evaluate(failing(board("Alice", 1.0), "boom", 2))
	e.Evaluate(failing(board("Alice", 1.0), "boom", 3)) // still firing, no repeat
	e.Wait()
	if rec.count() != 1 {
		t.Fatalf("deliveries after firing: got %d, want 1", rec.count())
	}
	n := rec.body(0)["notification"].(map[string]interface{})
	if n["state"] != StateFiring || n["severity"] != "critical" {
		t.Errorf("notification: got %v", n)
	}

	e.Evaluate(board("Alice", 1.0))
	e.Wait()
	if rec.count() != 2 {
		t.Fatalf("deliveries after resolve: got %d, want 2", rec.count())
	}
	n = rec.body(1)["notification"].(map[string]interface{})
	if n["state"] != StateResolved {
		t.Errorf("state: got %v, want resolved", n["state"])
	}

	active := e.Active()
	if len(active) != 1 || active[0].State != StateResolved || active[0].ResolvedAt == nil {
		t.Errorf("Active: got %+v", active)
	}
}

func TestEvaluate_Cooldown(t *testing.T) {
	e, rec := newEngine(t, "http", config.NotifyConfig{Rules: []config.NotifyRule{
		{Name: "empty", Condition: "entry_count < 1", Cooldown: time.Hour},
	}})
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	e.Evaluate(board())             // fires
	e.Evaluate(board("Alice", 1.0)) // resolves
	e.Evaluate(board())             // within cooldown: suppressed
	now = now.Add(2 * time.Hour)
	e.Evaluate(board("Alice", 1.0)) // nothing active, nothing to resolve
	e.Evaluate(board())             // cooldown over: fires again
	e.Wait()

	if rec.count() != 3 {
		t.Fatalf("deliveries: got %d, want 3 (fire, resolve, fire)", rec.count())
	}
}

func TestEvaluate_SkipsLoadingBoard(t *testing.T) {
	e, rec := newEngine(t, "http", config.NotifyConfig{Rules: []config.NotifyRule{
		{Name: "empty", Condition: "entry_count < 1"},
	}})
	e.Evaluate(types.Board{Loading: true})
	e.Wait()
	if rec.count() != 0 {
		t.Errorf("deliveries: got %d, want 0 while loading", rec.count())
	}
}

func TestEvaluate_NoWebhooks(t *testing.T) {
	e := New(config.NotifyConfig{Rules: []config.NotifyRule{
		{Name: "empty", Condition: "entry_count < 1"},
	}}, time.Minute)
	e.Evaluate(board())
	e.Wait()
	if got := e.Active(); len(got) != 1 || got[0].State != StateFiring {
		t.Errorf("Active: got %+v", got)
	}
}

// --- leader changes ---------------------------------------------------------

func TestEvaluate_LeaderChanges(t *testing.T) {
	e, rec := newEngine(t, "slack", config.NotifyConfig{LeaderChanges: true})

	e.Evaluate(board("Alice", 50.0, "Bob", 40.0)) // seeds
	e.Evaluate(board("Alice", 55.0, "Bob", 40.0)) // same leader
	e.Evaluate(board("Bob", 60.0, "Alice", 55.0)) // change
	e.Evaluate(board("Alice", 60.0, "Bob", 60.0)) // tie: leader set grows
	e.Evaluate(board("Bob", 60.0, "Alice", 60.0)) // same set, other order
	e.Wait()

	if rec.count() != 2 {
		t.Fatalf("deliveries: got %d, want 2", rec.count())
	}
	text := rec.body(0)["text"].(string)
	if !strings.Contains(text, "New leader: Bob with 60") || !strings.Contains(text, "(was Alice)") {
		t.Errorf("slack text: got %q", text)
	}
	if !strings.HasPrefix(text, "*[INFO]*") {
		t.Errorf("slack text: got %q, want [INFO] label", text)
	}
}

func TestEvaluate_IgnoresOlderBoard(t *testing.T) {
	e, rec := newEngine(t, "slack", config.NotifyConfig{LeaderChanges: true})

	e.Evaluate(withSeq(1, board("Alice", 50.0)))              // seeds
	e.Evaluate(withSeq(3, board("Bob", 60.0, "Alice", 50.0))) // change
	e.Evaluate(withSeq(2, board("Alice", 55.0, "Bob", 40.0))) // older: ignored
	e.Evaluate(withSeq(3, board("Bob", 60.0, "Alice", 50.0))) // same board again
	e.Wait()

	if rec.count() != 1 {
		t.Fatalf("deliveries: got %d, want 1", rec.count())
	}
	if text := rec.body(0)["text"].(string); !strings.Contains(text, "New leader: Bob") {
		t.Errorf("slack text: got %q", text)
	}
}

func TestDeliver_PreservesOrder(t *testing.T) {
	e, rec := newEngine(t, "slack", config.NotifyConfig{LeaderChanges: true})
	e.limiter = rate.NewLimiter(rate.Inf, 1)

	names := []string{"Alice", "Bob", "Cy", "Dee", "Eve", "Fay", "Gus", "Hal"}
	for i, name := range names {
		e.Evaluate(withSeq(uint64(i+1), board(name, float64(10+i))))
	}
	e.Wait()

	if rec.count() != len(names)-1 {
		t.Fatalf("deliveries: got %d, want %d", rec.count(), len(names)-1)
	}
	for i, name := range names[1:] {
		want := "New leader: " + name + " with"
		if text := rec.body(i)["text"].(string); !strings.Contains(text, want) {
			t.Errorf("delivery %d: got %q, want %q", i, text, want)
		}
	}
}

// --- webhook payloads -------------------------------------------------------

func TestDeliver_Teams(t *testing.T) {
	e, rec := newEngine(t, "teams", config.NotifyConfig{Rules: []config.NotifyRule{
		{Name: "stale", Condition: "state == error", Severity: "warning"},
	}})
	e.Evaluate(failing(board(), "boom", 1))
	e.Wait()

	if rec.count() != 1 {
		t.Fatalf("deliveries: got %d, want 1", rec.count())
	}
	body := rec.body(0)
	if body["@type"] != "MessageCard" || body["title"] != "Scoreboard: stale" {
		t.Errorf("teams payload: got %v", body)
	}
	if body["themeColor"] != severityColor("warning") {
		t.Errorf("themeColor: got %v", body["themeColor"])
	}
}

func TestDeliver_UnsetURLSkipped(t *testing.T) {
	e := New(config.NotifyConfig{
		Rules:    []config.NotifyRule{{Name: "empty", Condition: "entry_count < 1"}},
		Webhooks: []config.WebhookConfig{{Type: "http", URLEnv: "SCOREBOARD_TEST_UNSET_WEBHOOK"}},
	}, time.Minute)
	e.Evaluate(board())
	e.Wait() // must not hang or panic
}
