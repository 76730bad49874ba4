package source

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/livescores/scoreboard/internal/table"
	"github.com/livescores/scoreboard/pkg/types"
)

// ColumnMap maps normalized header names to column positions.
type ColumnMap map[string]int

// normalize trims and lower-cases a header cell. A Caser holds state, so one
// is created per call.
func normalize(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// MapColumns indexes a header row. When a name repeats, the last column wins.
func MapColumns(header []string) ColumnMap {
	m := make(ColumnMap, len(header))
	for i, h := range header {
		m[normalize(h)] = i
	}
	return m
}

// Index returns the position of col, or false when the header lacks it.
func (m ColumnMap) Index(col types.Column) (int, bool) {
	i, ok := m[normalize(string(col))]
	return i, ok
}

// Resolve turns a header row plus data rows into RawRecords. It returns an
// empty list when rows is empty or the header has no Name or Sum column.
func Resolve(rows [][]string) []types.RawRecord {
	if len(rows) == 0 {
		return []types.RawRecord{}
	}
	cols := MapColumns(rows[0])
	nameIdx, okName := cols.Index(types.ColumnName)
	sumIdx, okSum := cols.Index(types.ColumnSum)
	if !okName || !okSum {
		return []types.RawRecord{}
	}
	countIdx := indexOrMissing(cols, types.ColumnCount)
	avgIdx := indexOrMissing(cols, types.ColumnAvg)

	data := rows[1:]
	out := make([]types.RawRecord, 0, len(data))
	for _, r := range data {
		out = append(out, types.RawRecord{
			Name:  table.Cell(r, nameIdx),
			Sum:   table.Cell(r, sumIdx),
			Count: table.Cell(r, countIdx),
			Avg:   table.Cell(r, avgIdx),
		})
	}
	return out
}

// indexOrMissing returns -1 for an absent optional column; table.Cell reads
// -1 as "".
func indexOrMissing(cols ColumnMap, col types.Column) int {
	if i, ok := cols.Index(col); ok {
		return i
	}
	return -1
}
