package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/livescores/scoreboard/internal/config"
	"github.com/livescores/scoreboard/internal/table"
	"github.com/livescores/scoreboard/pkg/types"
)

const (
	acceptCSV  = "text/csv, text/plain;q=0.9, */*;q=0.1"
	acceptXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*;q=0.1"
)

type exportSource struct {
	url    string
	format string // config.FormatCSV | config.FormatXLSX
	sheet  string
	client *http.Client
}

func (s *exportSource) Name() string { return s.format + " export" }

// Fetch downloads the published export and resolves its columns.
func (s *exportSource) Fetch(ctx context.Context) ([]types.RawRecord, error) {
	accept := acceptCSV
	if s.format == config.FormatXLSX {
		accept = acceptXLSX
	}
	body, err := get(ctx, s.client, s.Name(), s.url, accept)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if s.format == config.FormatXLSX {
		rows, err = s.xlsxRows(body)
		if err != nil {
			return nil, err
		}
	} else {
		rows = table.Parse(string(body))
	}

	records := Resolve(rows)
	slog.Debug("source: export fetched",
		"format", s.format, "rows", len(rows), "records", len(records))
	return records, nil
}

// xlsxRows reads the configured worksheet, or the first one, as string rows.
func (s *exportSource) xlsxRows(body []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: open workbook: %v", s.Name(), ErrFormat, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, nil
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read sheet %q: %v", s.Name(), ErrFormat, sheet, err)
	}
	return table.Compact(rows), nil
}
