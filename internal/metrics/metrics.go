package metrics

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/livescores/scoreboard/internal/refresh"
)

// Metric names.
const (
	RefreshTotal       = "scoreboard_refresh_total"
	StaleDiscarded     = "scoreboard_stale_results_discarded_total"
	Entries            = "scoreboard_entries"
	LastSuccess        = "scoreboard_last_success_timestamp_seconds"
	RefreshDuration    = "scoreboard_refresh_duration_seconds"
	WebSocketClients   = "scoreboard_ws_clients"
	ConsecutiveFailure = "scoreboard_consecutive_failures"
)

// Registry accumulates refresh outcomes. Safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	results     map[string]float64
	discarded   float64
	entries     float64
	lastSuccess float64
	duration    float64
	failures    float64

	clients func() int
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{results: map[string]float64{
		refresh.ResultSuccess: 0,
		refresh.ResultEmpty:   0,
		refresh.ResultError:   0,
	}}
}

// SetClientCounter installs the function reporting connected WebSocket
// clients.
func (r *Registry) SetClientCounter(fn func() int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = fn
}

// Observe records one finished cycle. Cancelled cycles are ignored.
func (r *Registry) Observe(out refresh.Outcome) {
	if out.Result == refresh.ResultCancelled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[out.Result]++
	r.duration = out.Duration.Seconds()
	if !out.Applied {
		r.discarded++
		return
	}
	if out.Result == refresh.ResultError {
		r.failures++
		return
	}
	r.failures = 0
	r.entries = float64(out.Entries)
	r.lastSuccess = float64(out.Started.Add(out.Duration).UnixNano()) / 1e9
}

// Gather returns the current metric families, sorted by name.
func (r *Registry) Gather() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]string, 0, len(r.results))
	for k := range r.results {
		results = append(results, k)
	}
	sort.Strings(results)

	refreshes := family(RefreshTotal, "Refresh cycles by result.", dto.MetricType_COUNTER)
	for _, res := range results {
		refreshes.Metric = append(refreshes.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String("result"), Value: proto.String(res)}},
			Counter: &dto.Counter{Value: proto.Float64(r.results[res])},
		})
	}

	mfs := []*dto.MetricFamily{
		refreshes,
		counter(StaleDiscarded, "Results discarded because a newer one was already displayed.", r.discarded),
		gauge(Entries, "Entries on the displayed board.", r.entries),
		gauge(LastSuccess, "Unix time of the last successful refresh.", r.lastSuccess),
		gauge(RefreshDuration, "Duration of the last refresh cycle.", r.duration),
		gauge(ConsecutiveFailure, "Failed refreshes since the last success.", r.failures),
	}
	if r.clients != nil {
		mfs = append(mfs, gauge(WebSocketClients, "Connected WebSocket clients.", float64(r.clients())))
	}
	sort.Slice(mfs, func(i, j int) bool { return mfs[i].GetName() < mfs[j].GetName() })
	return mfs
}

// ServeHTTP writes all families in the text exposition format.
func (r *Registry) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.Gather() {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("metrics: encode failed", "family", mf.GetName(), "err", err)
			return
		}
	}
}

func family(name, help string, typ dto.MetricType) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: typ.Enum(),
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	mf := family(name, help, dto.MetricType_COUNTER)
	mf.Metric = []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}}
	return mf
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	mf := family(name, help, dto.MetricType_GAUGE)
	mf.Metric = []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}}
	return mf
}
