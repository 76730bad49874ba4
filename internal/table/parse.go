package table

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	bom       = "\uFEFF"
	comma     = ','
	semicolon = ';'
	quote     = '"'
)

// Parse splits text into rows of cells. The first returned row is the header.
func Parse(text string) [][]string {
	text = stripBOM(text)
	delim := DetectDelimiter(firstLine(text))

	var (
		rows     [][]string
		row      []string
		cur      strings.Builder
		inQuotes bool
	)
	endField := func() {
		row = append(row, cur.String())
		cur.Reset()
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			switch {
			case c == quote && i+1 < len(text) && text[i+1] == quote:
				cur.WriteByte(quote)
				i++
			case c == quote:
				inQuotes = false
			case c == '\r' && i+1 < len(text) && text[i+1] == '\n':
				// CRLF inside a quoted cell is stored as LF.
			default:
				cur.WriteByte(c)
			}
			continue
		}

		switch c {
		case quote:
			inQuotes = true
		case delim:
			endField()
		case '\n':
			endRow()
		case '\r':
		default:
			cur.WriteByte(c)
		}
	}
	endRow()

	return Compact(rows)
}

// DetectDelimiter returns ';' when line contains a semicolon and no comma,
// and ',' otherwise.
func DetectDelimiter(line string) byte {
	if strings.ContainsRune(line, semicolon) && !strings.ContainsRune(line, comma) {
		return semicolon
	}
	return comma
}

// firstLine returns text up to the first newline, without a trailing CR.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSuffix(text, "\r")
}

// stripBOM removes a leading byte-order mark so the first header cell is
// matched by name. Input that fails to decode is returned unchanged.
func stripBOM(text string) string {
	if !strings.HasPrefix(text, bom) {
		return text
	}
	out, _, err := transform.String(unicode.BOMOverride(transform.Nop), text)
	if err != nil {
		return strings.TrimPrefix(text, bom)
	}
	return out
}

// Compact drops rows whose cells are all empty after trimming. It reuses the
// backing array of rows.
func Compact(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		for _, cell := range r {
			if strings.TrimSpace(cell) != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Cell returns row[i] trimmed, or "" when i is out of range or negative.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
