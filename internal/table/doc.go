// Package table turns delimited spreadsheet text into rows of string cells.
//
// Parse is total: it never returns an error. Malformed quoting is read on a
// best-effort basis (an unterminated quote runs to the end of input), blank
// rows are dropped, and short rows are kept as-is for the caller to pad.
//
// The delimiter is chosen once, from the first line: semicolon when that line
// has a semicolon and no comma, comma otherwise.
package table
