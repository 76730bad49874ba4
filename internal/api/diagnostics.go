package api

import (
	"fmt"
	"sort"
	"time"

	"github.com/livescores/scoreboard/internal/source"
	"github.com/livescores/scoreboard/pkg/types"
)

// DiagnosticHint is one plain-language insight about the data feed. Renderers
// show Title on a chip and Detail on click.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level  string `json:"level"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	// Value is an optional number behind the hint (seconds stale, row count).
	Value *float64 `json:"value,omitempty"`
}

var levelOrder = map[string]int{"critical": 0, "warning": 1, "info": 2, "ok": 3}

// computeDiagnostics derives hints from a board. Critical hints come first.
func computeDiagnostics(b types.Board, now time.Time, staleAfter time.Duration) []DiagnosticHint {
	hints := make([]DiagnosticHint, 0)

	if b.Loading {
		return append(hints, DiagnosticHint{
			Key:   "warming_up",
			Level: "info",
			Title: "Loading scores",
			Detail: "The first refresh has not finished yet. " +
				"Scores appear as soon as the data source answers.",
		})
	}

	if b.HasError() {
		msg := *b.Error
		if msg == source.ErrNotConfigured.Error() {
			hints = append(hints, DiagnosticHint{
				Key:   "not_configured",
				Level: "critical",
				Title: "No data source",
				Detail: "Neither a published export URL nor Sheets API credentials are configured. " +
					"Set source.export_url, or source.sheets.key_env, sheet_id and range.",
			})
		} else {
			detail := fmt.Sprintf("The last refresh failed with: %q. ", msg)
			if len(b.Entries) > 0 {
				detail += "The board keeps showing the scores from the last successful refresh."
			} else {
				detail += "No scores have been loaded yet."
			}
			v := float64(b.ConsecutiveFailures)
			hints = append(hints, DiagnosticHint{
				Key:    "fetch_failed",
				Level:  "critical",
				Title:  "Can't reach data source",
				Detail: detail,
				Value:  &v,
			})
		}
	}

	if staleAfter > 0 && b.LastUpdated != nil && b.Age(now) > staleAfter {
		v := b.Age(now).Seconds()
		hints = append(hints, DiagnosticHint{
			Key:   "stale_data",
			Level: "warning",
			Title: "Scores are stale",
			Detail: fmt.Sprintf("The scores on screen were last refreshed %s ago.",
				b.Age(now).Truncate(time.Second)),
			Value: &v,
		})
	}

	if !b.HasError() && len(b.Entries) == 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "no_data",
			Level: "warning",
			Title: "Sheet has no scores",
			Detail: "The data source answered but produced no rows. " +
				"Check that the header row has Name and Sum columns and that the sheet has data below it.",
		})
	}

	var unparsed, unnamed int
	for _, e := range b.Entries {
		if e.ScoreNum == 0 && e.Sum != "" && e.Sum != "0" {
			unparsed++
		}
		if e.Name == "" {
			unnamed++
		}
	}
	if unparsed > 0 {
		v := float64(unparsed)
		hints = append(hints, DiagnosticHint{
			Key:   "unparsed_scores",
			Level: "info",
			Title: fmt.Sprintf("%d non-numeric scores", unparsed),
			Detail: "Some Sum cells do not start with a number and are ranked as 0. " +
				"Use plain decimal numbers with a dot as the decimal separator.",
			Value: &v,
		})
	}
	if unnamed > 0 {
		v := float64(unnamed)
		hints = append(hints, DiagnosticHint{
			Key:    "blank_names",
			Level:  "info",
			Title:  fmt.Sprintf("%d rows without a name", unnamed),
			Detail: "Some rows have an empty Name cell. They still appear on the board.",
			Value:  &v,
		})
	}

	if b.SuccessPct < 100 && !b.HasError() {
		v := b.SuccessPct
		hints = append(hints, DiagnosticHint{
			Key:   "flaky_source",
			Level: "info",
			Title: "Intermittent failures",
			Detail: fmt.Sprintf("%.0f%% of recent refreshes succeeded. "+
				"The source answers now but has failed recently.", b.SuccessPct),
			Value: &v,
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelOrder[hints[i].Level] < levelOrder[hints[j].Level]
	})
	return hints
}
