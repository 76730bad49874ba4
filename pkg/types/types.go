package types

import "time"

// Column is a logical column name looked up in the source header row.
type Column string

// Logical columns consumed from the source table. Name and Sum are required.
const (
	ColumnName  Column = "Name"
	ColumnSum   Column = "Sum"
	ColumnCount Column = "Count"
	ColumnAvg   Column = "Avg"
)

// RawRecord is one data row of the source table, trimmed, keyed by logical
// column. A column missing from the row or from the header is "".
type RawRecord struct {
	Name  string `json:"name"`
	Sum   string `json:"sum"`
	Count string `json:"count"`
	Avg   string `json:"avg"`
}

// RankedEntry is a RawRecord with its coerced score and dense rank.
type RankedEntry struct {
	RawRecord
	ScoreNum float64 `json:"score_num"`
	Rank     int     `json:"rank"`
}

// BoardEntry is a RankedEntry decorated for display.
type BoardEntry struct {
	RankedEntry
	Initials string `json:"initials"`
	Photo    string `json:"photo,omitempty"`
}

// Board is the externally observed scoreboard state handed to renderers.
//
// Error and Entries are not mutually exclusive: a failed refresh keeps the
// entries of the last successful one.
type Board struct {
	Title      string `json:"title"`
	Logo       string `json:"logo,omitempty"`
	BrandColor string `json:"brand_color"`

	Loading     bool       `json:"loading"`
	Error       *string    `json:"error"`
	LastUpdated *time.Time `json:"last_updated"`
	CycleID     string     `json:"cycle_id,omitempty"`

	// Seq is the sequence of the refresh on display; 0 before the first.
	// Boards with a higher Seq reflect newer data.
	Seq uint64 `json:"seq"`

	Entries []BoardEntry `json:"entries"`
	Podium  []BoardEntry `json:"podium"`
	Rest    []BoardEntry `json:"rest"`

	SuccessPct          float64   `json:"success_pct"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// HasError reports whether the most recent refresh failed.
func (b Board) HasError() bool { return b.Error != nil }

// Empty reports whether the board has finished loading and holds no entries.
func (b Board) Empty() bool { return !b.Loading && len(b.Entries) == 0 }

// Leaders returns the names sharing rank 1, in board order.
func (b Board) Leaders() []string {
	var out []string
	for _, e := range b.Entries {
		if e.Rank != 1 {
			break
		}
		out = append(out, e.Name)
	}
	return out
}

// Board states, as reported by the health endpoint and notification rules.
const (
	StateLoading = "loading"
	StateOK      = "ok"
	StateEmpty   = "empty"
	StateError   = "error"
	StateStale   = "stale"
)

// Age returns how long ago the last successful refresh happened, or 0 when
// there has been none.
func (b Board) Age(now time.Time) time.Duration {
	if b.LastUpdated == nil {
		return 0
	}
	if d := now.Sub(*b.LastUpdated); d > 0 {
		return d
	}
	return 0
}

// State classifies the board. A failing refresh wins over staleness, and
// staleness over emptiness. staleAfter <= 0 disables the stale state.
func (b Board) State(now time.Time, staleAfter time.Duration) string {
	switch {
	case b.Loading:
		return StateLoading
	case b.HasError():
		return StateError
	case staleAfter > 0 && b.LastUpdated != nil && b.Age(now) > staleAfter:
		return StateStale
	case len(b.Entries) == 0:
		return StateEmpty
	default:
		return StateOK
	}
}
