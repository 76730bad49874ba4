package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/livescores/scoreboard/internal/config"
	"github.com/livescores/scoreboard/internal/rank"
	"github.com/livescores/scoreboard/internal/source"
	"github.com/livescores/scoreboard/internal/store"
	"github.com/livescores/scoreboard/pkg/types"
)

// Cycle results.
const (
	ResultSuccess   = "success"
	ResultEmpty     = "empty"
	ResultError     = "error"
	ResultCancelled = "cancelled"
)

// Factory builds a Source from configuration. source.New in production.
type Factory func(config.SourceConfig) source.Source

// Outcome describes one finished cycle.
type Outcome struct {
	CycleID  string
	Seq      uint64
	Source   string
	Result   string // ResultSuccess | ResultEmpty | ResultError | ResultCancelled
	Entries  int
	Err      error
	Started  time.Time
	Duration time.Duration
	// Applied is false when the store discarded the result as stale, or the
	// cycle was cancelled before publishing.
	Applied bool
}

// Orchestrator owns the refresh cadence and is the store's only writer.
//
// All exported methods are safe for concurrent use.
type Orchestrator struct {
	store     *store.Store
	newSource Factory
	hist      history

	mu       sync.Mutex
	src      source.Source
	interval time.Duration
	onCycle  []func(Outcome)
	onBoard  []func(types.Board)
	inflight map[uint64]context.CancelFunc // key: cycle seq

	reconf chan struct{}
	now    func() time.Time // injectable for deterministic tests
}

// New returns an Orchestrator fetching from the source described by cfg every
// interval. A nil factory means source.New.
func New(cfg config.SourceConfig, interval time.Duration, st *store.Store, factory Factory) *Orchestrator {
	if factory == nil {
		factory = source.New
	}
	if interval <= 0 {
		interval = config.DefaultRefreshInterval
	}
	return &Orchestrator{
		store:     st,
		newSource: factory,
		src:       factory(cfg),
		interval:  interval,
		inflight:  make(map[uint64]context.CancelFunc),
		reconf:    make(chan struct{}, 1),
		now:       time.Now,
	}
}

// OnCycle registers fn to be called after every cycle, including discarded
// and failed ones. Callbacks run on the cycle's goroutine and must not block.
func (o *Orchestrator) OnCycle(fn func(Outcome)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onCycle = append(o.onCycle, fn)
}

// OnPublish registers fn to be called with the new board whenever a cycle's
// result is applied to the store.
func (o *Orchestrator) OnPublish(fn func(types.Board)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onBoard = append(o.onBoard, fn)
}

// Reconfigure swaps the data source and, when interval > 0, the cadence.
// Cycles still fetching from the previous source are cancelled and publish
// nothing. A running loop starts a new cycle immediately instead of waiting
// for the next tick.
func (o *Orchestrator) Reconfigure(cfg config.SourceConfig, interval time.Duration) {
	src := o.newSource(cfg)

	o.mu.Lock()
	o.src = src
	if interval > 0 {
		o.interval = interval
	}
	superseded := len(o.inflight)
	for _, cancel := range o.inflight {
		cancel()
	}
	o.mu.Unlock()

	slog.Info("refresh: source reconfigured", "source", src.Name(), "cancelled_cycles", superseded)
	select {
	case o.reconf <- struct{}{}:
	default:
	}
}

// Run performs a cycle immediately, then one every interval, until ctx is
// cancelled. Cycles never overlap within one Run. No cycle starts after Run
// returns.
func (o *Orchestrator) Run(ctx context.Context) {
	o.Cycle(ctx)

	t := time.NewTicker(o.currentInterval())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.reconf:
			t.Reset(o.currentInterval())
			o.Cycle(ctx)
		case <-t.C:
			o.Cycle(ctx)
		}
		// A cycle that outlived cancellation must not be followed by another.
		if ctx.Err() != nil {
			return
		}
	}
}

func (o *Orchestrator) currentInterval() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.interval
}

// Cycle runs one fetch-and-rank cycle and publishes its outcome. A result
// that finishes after a newer cycle's has been displayed is discarded. A cycle
// cancelled by ctx or by Reconfigure publishes nothing.
func (o *Orchestrator) Cycle(ctx context.Context) Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The source and the cancel registration are taken together so that a
	// concurrent Reconfigure either sees this cycle or hands it the new source.
	o.mu.Lock()
	src := o.src
	seq := o.store.Begin()
	o.inflight[seq] = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.inflight, seq)
		o.mu.Unlock()
	}()

	out := Outcome{
		CycleID: uuid.NewString(),
		Seq:     seq,
		Source:  src.Name(),
		Started: o.now(),
	}
	log := slog.With("cycle", out.CycleID, "source", out.Source)
	log.Debug("refresh: cycle started", "seq", out.Seq)

	records, err := src.Fetch(ctx)
	out.Duration = o.now().Sub(out.Started)

	if ctx.Err() != nil {
		out.Result = ResultCancelled
		out.Err = ctx.Err()
		log.Debug("refresh: cycle cancelled")
		o.emit(out, nil)
		return out
	}

	res := store.Result{Seq: out.Seq, CycleID: out.CycleID, At: o.now()}
	if err != nil {
		out.Result = ResultError
		out.Err = err
		res.Err = Message(err)
		res.SuccessPct, res.ConsecutiveFailures = o.hist.record(false)
		log.Warn("refresh: fetch failed", "err", err,
			"consecutive_failures", res.ConsecutiveFailures)
	} else {
		res.Entries = rank.Rank(records)
		res.SuccessPct, res.ConsecutiveFailures = o.hist.record(true)
		out.Entries = len(res.Entries)
		out.Result = ResultSuccess
		if out.Entries == 0 {
			out.Result = ResultEmpty
		}
		log.Debug("refresh: cycle ranked", "entries", out.Entries, "duration", out.Duration)
	}

	out.Applied = o.store.Publish(res)
	if !out.Applied {
		log.Info("refresh: newer result already displayed, discarding", "seq", out.Seq)
		o.emit(out, nil)
		return out
	}

	b := o.store.Snapshot()
	o.emit(out, &b)
	return out
}

func (o *Orchestrator) emit(out Outcome, b *types.Board) {
	o.mu.Lock()
	cycle := slices.Clone(o.onCycle)
	board := slices.Clone(o.onBoard)
	o.mu.Unlock()

	for _, fn := range cycle {
		fn(out)
	}
	if b == nil {
		return
	}
	for _, fn := range board {
		fn(*b)
	}
}

// Message converts a fetch error to the single line shown to renderers.
func Message(err error) string {
	var (
		se *source.StatusError
		ne net.Error
	)
	switch {
	case errors.Is(err, source.ErrNotConfigured):
		return err.Error()
	case errors.As(err, &se):
		return se.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return "fetch timed out"
	default:
		return err.Error()
	}
}
