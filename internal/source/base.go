package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/livescores/scoreboard/internal/config"
	"github.com/livescores/scoreboard/pkg/types"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 16 << 20

const userAgent = "livescores-scoreboard/1"

// ErrNotConfigured is returned by Fetch when neither strategy is configured.
var ErrNotConfigured = errors.New("provide source.export_url OR source.sheets key_env+sheet_id+range")

// ErrFormat marks a response body that could not be decoded.
var ErrFormat = errors.New("malformed response")

// StatusError is a non-success HTTP response from the data source.
type StatusError struct {
	Source string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s fetch failed: HTTP %d", e.Source, e.Code)
}

// Source fetches one snapshot of raw records.
type Source interface {
	Fetch(ctx context.Context) ([]types.RawRecord, error)
	Name() string
}

// New returns the Source selected by cfg. It builds the HTTP client once and
// reuses it across fetches.
func New(cfg config.SourceConfig) Source {
	client := buildHTTPClient(cfg)
	switch {
	case cfg.ExportURL != "":
		return &exportSource{
			url:    cfg.ExportURL,
			format: cfg.EffectiveFormat(),
			sheet:  cfg.Sheet,
			client: client,
		}
	case cfg.Sheets.Complete():
		return &sheetsSource{
			endpoint: cfg.Sheets.Endpoint,
			key:      cfg.Sheets.Key(),
			sheetID:  cfg.Sheets.SheetID,
			rng:      cfg.Sheets.Range,
			client:   client,
		}
	default:
		return unconfigured{}
	}
}

type unconfigured struct{}

func (unconfigured) Fetch(context.Context) ([]types.RawRecord, error) {
	return nil, ErrNotConfigured
}

func (unconfigured) Name() string { return "unconfigured" }

// noCacheRoundTripper asks every intermediary for a fresh copy.
type noCacheRoundTripper struct {
	base http.RoundTripper
}

func (t *noCacheRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs the client shared by a source's fetches.
func buildHTTPClient(cfg config.SourceConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}
	return &http.Client{
		Transport: &noCacheRoundTripper{base: http.DefaultTransport},
		Timeout:   timeout,
	}
}

// get performs an HTTP GET to url and returns the body of a 2xx response.
func get(ctx context.Context, client *http.Client, name, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", name, err)
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: http get: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Source: name, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", name, err)
	}
	return body, nil
}
