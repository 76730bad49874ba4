package rank

import (
	"sort"

	"github.com/livescores/scoreboard/pkg/types"
)

// PodiumSize is the number of leading entries shown on the podium.
const PodiumSize = 3

// Rank scores, sorts and ranks records. The result is ordered by score
// descending; records with equal scores keep their input order.
// records is not modified.
func Rank(records []types.RawRecord) []types.RankedEntry {
	out := make([]types.RankedEntry, len(records))
	for i, r := range records {
		out[i] = types.RankedEntry{RawRecord: r, ScoreNum: ParseScore(r.Sum)}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScoreNum > out[j].ScoreNum
	})

	for i := range out {
		if i > 0 && out[i].ScoreNum == out[i-1].ScoreNum {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// Podium splits ranked entries into the first n and the remainder.
// Both slices share the backing array of entries.
func Podium[T any](entries []T, n int) (top, rest []T) {
	if n < 0 {
		n = 0
	}
	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n], entries[n:]
}
