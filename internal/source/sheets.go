package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/livescores/scoreboard/pkg/types"
)

// valuesResponse is the part of the Sheets API values response we read.
type valuesResponse struct {
	Values [][]interface{} `json:"values"`
}

type sheetsSource struct {
	endpoint string
	key      string
	sheetID  string
	rng      string
	client   *http.Client
}

func (s *sheetsSource) Name() string { return "sheets api" }

// URL returns the values endpoint for the configured sheet and range.
func (s *sheetsSource) URL() string {
	q := url.Values{}
	q.Set("key", s.key)
	return fmt.Sprintf("%s/%s/values/%s?%s",
		strings.TrimRight(s.endpoint, "/"),
		url.PathEscape(s.sheetID),
		url.PathEscape(s.rng),
		q.Encode(),
	)
}

// Fetch reads the range through the Sheets API and resolves its columns.
// A response without "values" is an empty sheet, not an error.
func (s *sheetsSource) Fetch(ctx context.Context) ([]types.RawRecord, error) {
	body, err := get(ctx, s.client, s.Name(), s.URL(), "application/json")
	if err != nil {
		return nil, err
	}

	var resp valuesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w: decode JSON: %v", s.Name(), ErrFormat, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			rows[i][j] = cellString(v)
		}
	}

	records := Resolve(rows)
	slog.Debug("source: sheets fetched", "rows", len(rows), "records", len(records))
	return records, nil
}

// cellString renders a decoded JSON cell. The API returns strings by default;
// other render options can yield numbers or booleans.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
