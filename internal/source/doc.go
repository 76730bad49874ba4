// Package source fetches the scoreboard table from its remote data source and
// normalizes it into RawRecords.
//
// Two strategies implement Source:
//   - export (export.go): GET a published spreadsheet export, CSV or XLSX,
//     always fresh, parsed by package table or by excelize.
//   - sheets (sheets.go): GET the Sheets API values endpoint with an API key
//     and decode its {"values": [][]string} body.
//
// New(config.SourceConfig) picks the strategy: the export URL wins when set,
// then complete Sheets credentials; with neither, Fetch returns
// ErrNotConfigured on every call.
//
// Column resolution (columns.go) is shared. A header without Name or Sum
// yields an empty record list, which is a valid "no data" result and not an
// error. Only transport, status and format problems surface as errors.
package source
