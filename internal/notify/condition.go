package notify

import (
	"strconv"
	"strings"
	"time"

	"github.com/livescores/scoreboard/pkg/types"
)

// evalCondition evaluates a rule condition against a board.
//
// Supported expressions (field operator value):
//
//	entry_count < 1
//	top_score >= 100
//	stale_seconds > 60
//	consecutive_failures >= 3
//	success_pct < 80
//	state == error
//	state != ok
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, b types.Board, now time.Time, staleAfter time.Duration) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "state" {
		state := b.State(now, staleAfter)
		switch op {
		case "==":
			return state == rhs, 0
		case "!=":
			return state != rhs, 0
		}
		return false, 0
	}

	v, ok := numericField(field, b, now)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value on the board.
func numericField(field string, b types.Board, now time.Time) (float64, bool) {
	switch field {
	case "entry_count":
		return float64(len(b.Entries)), true
	case "top_score":
		if len(b.Entries) == 0 {
			return 0, true
		}
		return b.Entries[0].ScoreNum, true
	case "stale_seconds":
		return b.Age(now).Seconds(), true
	case "consecutive_failures":
		return float64(b.ConsecutiveFailures), true
	case "success_pct":
		return b.SuccessPct, true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
