package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/livescores/scoreboard/internal/config"
	"github.com/livescores/scoreboard/pkg/types"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200

	// deliveryTimeout bounds one notification's fan-out, including the wait
	// for the rate limiter.
	deliveryTimeout = 30 * time.Second

	// deliveryQueueLen bounds notifications waiting for the delivery worker.
	deliveryQueueLen = 64
)

// Notification states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
	StateLeader   = "leader"
)

// leaderRule names notifications about a change of leader.
const leaderRule = "leader_change"

// Notification is one event produced by the engine.
type Notification struct {
	ID         string     `json:"id"`
	Rule       string     `json:"rule"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved" | "leader"
}

// Engine evaluates notification rules against boards and delivers webhooks.
// Webhooks are delivered one notification at a time, in the order the
// notifications were produced.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules         []config.NotifyRule
	webhooks      []config.WebhookConfig
	leaderChanges bool
	staleAfter    time.Duration

	evalMu  sync.Mutex // serializes Evaluate
	lastSeq uint64     // newest board sequence evaluated

	mu       sync.Mutex
	active   map[string]*Notification // key: rule name
	lastFire map[string]time.Time     // for cooldown
	history  []*Notification
	leaders  []string
	seeded   bool // leaders holds a real observation

	client  *http.Client
	limiter *rate.Limiter
	queue   chan *Notification
	worker  sync.Once
	wg      sync.WaitGroup   // queued or in-flight deliveries
	now     func() time.Time // injectable for deterministic tests
}

// New creates an Engine from the notify configuration. staleAfter feeds the
// "stale" board state. An Engine with no rules and leader changes off is
// valid; Evaluate becomes a no-op.
func New(cfg config.NotifyConfig, staleAfter time.Duration) *Engine {
	return &Engine{
		rules:         cfg.Rules,
		webhooks:      cfg.Webhooks,
		leaderChanges: cfg.LeaderChanges,
		staleAfter:    staleAfter,
		active:        make(map[string]*Notification),
		lastFire:      make(map[string]time.Time),
		client:        &http.Client{Timeout: 10 * time.Second},
		limiter:       rate.NewLimiter(rate.Every(time.Second), 5),
		queue:         make(chan *Notification, deliveryQueueLen),
		now:           time.Now,
	}
}

// Run evaluates the board returned by snapshot every interval until ctx is
// cancelled, then waits for pending deliveries.
func (e *Engine) Run(ctx context.Context, snapshot func() types.Board, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	defer e.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.Evaluate(snapshot())
		}
	}
}

// Evaluate tests all rules against b. Firing rules are recorded and delivered
// asynchronously; firing rules whose condition cleared are resolved. A board
// older than one already evaluated (lower Seq) is ignored.
func (e *Engine) Evaluate(b types.Board) {
	if b.Loading {
		return
	}

	e.evalMu.Lock()
	defer e.evalMu.Unlock()
	if b.Seq < e.lastSeq {
		slog.Debug("notify: skipping older board", "seq", b.Seq, "evaluated", e.lastSeq)
		return
	}
	e.lastSeq = b.Seq
	now := e.now()

	for _, rule := range e.rules {
		fires, value := evalCondition(rule.Condition, b, now, e.staleAfter)
		if n := e.transition(rule, fires, value, now); n != nil {
			e.dispatch(n)
		}
	}

	if e.leaderChanges {
		if n := e.leaderChange(b, now); n != nil {
			e.dispatch(n)
		}
	}
}

// transition updates the rule's state and returns the notification to send,
// if any.
func (e *Engine) transition(rule config.NotifyRule, fires bool, value float64, now time.Time) *Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := rule.Name
	if fires {
		if _, ok := e.active[key]; ok {
			return nil
		}
		cooldown := rule.Cooldown
		if cooldown <= 0 {
			cooldown = defaultCooldown
		}
		if last, ok := e.lastFire[key]; ok && now.Sub(last) < cooldown {
			return nil
		}
		sev := rule.Severity
		if sev == "" {
			sev = "warning"
		}
		n := &Notification{
			ID:       fmt.Sprintf("%s:%d", rule.Name, now.UnixNano()),
			Rule:     rule.Name,
			Severity: sev,
			Value:    value,
			Message:  fmt.Sprintf("[%s] %s fired: %s (value %.2f)", sev, rule.Name, rule.Condition, value),
			FiredAt:  now,
			State:    StateFiring,
		}
		e.active[key] = n
		e.lastFire[key] = now
		slog.Warn("notify: rule fired", "rule", rule.Name, "value", value, "severity", sev)
		cp := *n
		return &cp
	}

	n, ok := e.active[key]
	if !ok {
		return nil
	}
	resolved := now
	n.State = StateResolved
	n.ResolvedAt = &resolved
	n.Message = fmt.Sprintf("[%s] %s resolved: %s", n.Severity, rule.Name, rule.Condition)
	delete(e.active, key)
	e.remember(n)
	slog.Info("notify: rule resolved", "rule", rule.Name)
	cp := *n
	return &cp
}

// leaderChange returns a notification when the set of rank-1 names differs
// from the previous board's. The first observation only seeds the state.
func (e *Engine) leaderChange(b types.Board, now time.Time) *Notification {
	leaders := b.Leaders()
	sorted := append([]string(nil), leaders...)
	sort.Strings(sorted)

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.leaders
	seeded := e.seeded
	e.leaders = sorted
	e.seeded = true
	if !seeded || len(sorted) == 0 || equal(prev, sorted) {
		return nil
	}

	var top float64
	if len(b.Entries) > 0 {
		top = b.Entries[0].ScoreNum
	}
	msg := fmt.Sprintf("New leader: %s with %g", strings.Join(leaders, ", "), top)
	if len(prev) > 0 {
		msg += fmt.Sprintf(" (was %s)", strings.Join(prev, ", "))
	}
	n := &Notification{
		ID:       fmt.Sprintf("%s:%d", leaderRule, now.UnixNano()),
		Rule:     leaderRule,
		Severity: "info",
		Message:  msg,
		Value:    top,
		FiredAt:  now,
		State:    StateLeader,
	}
	e.remember(n)
	slog.Info("notify: leader changed", "leaders", leaders, "previous", prev)
	cp := *n
	return &cp
}

// remember appends n to the bounded history. Callers hold e.mu.
func (e *Engine) remember(n *Notification) {
	e.history = append(e.history, n)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
}

// Active returns copies of the firing notifications followed by the recent
// history, newest first.
func (e *Engine) Active() []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Notification, 0, len(e.active)+len(e.history))
	for _, n := range e.active {
		out = append(out, *n)
	}
	for _, n := range e.history {
		out = append(out, *n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Wait blocks until all queued and in-flight deliveries have finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// dispatch queues n for the delivery worker, starting it on first use. A full
// queue drops n.
func (e *Engine) dispatch(n *Notification) {
	if len(e.webhooks) == 0 {
		return
	}
	e.worker.Do(func() { go e.drain() })

	e.wg.Add(1)
	select {
	case e.queue <- n:
	default:
		e.wg.Done()
		slog.Warn("notify: delivery queue full, dropping", "rule", n.Rule, "state", n.State)
	}
}

// drain delivers queued notifications one at a time.
func (e *Engine) drain() {
	for n := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		e.deliver(ctx, n)
		cancel()
		e.wg.Done()
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
