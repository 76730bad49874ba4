package store

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/livescores/scoreboard/internal/config"
	"github.com/livescores/scoreboard/internal/rank"
	"github.com/livescores/scoreboard/pkg/types"
)

// Result is the outcome of one refresh cycle, as handed to Publish.
type Result struct {
	Seq     uint64
	CycleID string
	// Entries is the new ranked list. Ignored when Err is set.
	Entries []types.RankedEntry
	// Err is the human-readable failure message; empty on success.
	Err string
	At  time.Time

	SuccessPct          float64
	ConsecutiveFailures int
}

// Store is the thread-safe displayed-state cell.
type Store struct {
	mu sync.RWMutex

	display config.DisplayConfig

	next    uint64 // last sequence handed out by Begin
	shown   uint64 // sequence of the result on display; 0 before the first
	loading bool

	entries     []types.RankedEntry
	errMsg      *string
	lastUpdated *time.Time
	cycleID     string
	successPct  float64
	failures    int
	discarded   uint64

	subs map[chan struct{}]struct{}
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store in the loading state.
func New(display config.DisplayConfig) *Store {
	return &Store{
		display:    display,
		loading:    true,
		successPct: 100,
		subs:       make(map[chan struct{}]struct{}),
		now:        time.Now,
	}
}

// Begin reserves the sequence number for a cycle that is about to fetch.
// Sequence numbers increase strictly in call order.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// Publish applies r unless a newer cycle's result is already on display.
// It reports whether r was applied.
//
// A failure keeps the previous entries and last-updated time; only the error
// indicator changes. A success replaces the entries wholesale and clears the
// error.
func (s *Store) Publish(r Result) bool {
	s.mu.Lock()
	if r.Seq <= s.shown {
		s.discarded++
		shown := s.shown
		s.mu.Unlock()
		slog.Debug("store: discarded stale result",
			"cycle", r.CycleID, "seq", r.Seq, "shown", shown)
		return false
	}

	s.shown = r.Seq
	s.loading = false
	s.cycleID = r.CycleID
	s.successPct = r.SuccessPct
	s.failures = r.ConsecutiveFailures
	if r.Err != "" {
		msg := r.Err
		s.errMsg = &msg
	} else {
		s.entries = r.Entries
		s.errMsg = nil
		at := r.At
		s.lastUpdated = &at
	}
	s.notifyLocked()
	s.mu.Unlock()
	return true
}

// SetDisplay replaces the title, logo, brand color and photo map.
func (s *Store) SetDisplay(d config.DisplayConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = d
	s.notifyLocked()
}

// Discarded returns how many results Publish has rejected as stale.
func (s *Store) Discarded() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discarded
}

// Snapshot returns the board as it should be rendered right now.
func (s *Store) Snapshot() types.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := types.Board{
		Title:               s.display.Title,
		Logo:                s.display.Logo,
		BrandColor:          s.display.BrandColor,
		Loading:             s.loading,
		CycleID:             s.cycleID,
		Seq:                 s.shown,
		SuccessPct:          s.successPct,
		ConsecutiveFailures: s.failures,
		GeneratedAt:         s.now(),
		Entries:             make([]types.BoardEntry, len(s.entries)),
	}
	if s.errMsg != nil {
		msg := *s.errMsg
		b.Error = &msg
	}
	if s.lastUpdated != nil {
		at := *s.lastUpdated
		b.LastUpdated = &at
	}
	for i, e := range s.entries {
		b.Entries[i] = types.BoardEntry{
			RankedEntry: e,
			Initials:    Initials(e.Name),
			Photo:       s.display.Photos[e.Name],
		}
	}
	b.Podium, b.Rest = rank.Podium(b.Entries, rank.PodiumSize)
	return b
}

// Subscribe returns a channel that receives a value whenever the board
// changes, and a function that cancels the subscription. Notifications are
// coalesced: a slow reader sees one pending signal, not one per change.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notifyLocked() {
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Initials returns the upper-cased first letters of the first two words of
// name.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, w := range strings.Fields(name) {
		if n == 2 {
			break
		}
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		n++
	}
	return b.String()
}
