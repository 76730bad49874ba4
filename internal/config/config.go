package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultTitle             = "Live Scores"
	DefaultBrandColor        = "#6366f1"
	DefaultRefreshInterval   = 10 * time.Second
	DefaultRequestTimeout    = 10 * time.Second
	DefaultBroadcastInterval = 5 * time.Second
	DefaultHTTPPort          = 8080
	DefaultSheetsEndpoint    = "https://sheets.googleapis.com/v4/spreadsheets"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
)

// Export formats understood by the export-URL strategy.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Source  SourceConfig  `yaml:"source"`
	Refresh RefreshConfig `yaml:"refresh"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// DisplayConfig holds the presentation settings forwarded to renderers.
type DisplayConfig struct {
	Title      string `yaml:"title"`
	Logo       string `yaml:"logo"`
	BrandColor string `yaml:"brand_color"`

	// Photos maps an exact participant name to an image path.
	Photos map[string]string `yaml:"photos"`
}

// SourceConfig selects and configures the data source. The export URL wins
// when both it and the Sheets credentials are present.
type SourceConfig struct {
	// ExportURL is a published spreadsheet export (CSV or XLSX).
	ExportURL string `yaml:"export_url"`

	// Format is csv | xlsx. Empty means inferred from ExportURL.
	Format string `yaml:"format"`

	// Sheet names the worksheet to read from an xlsx export. Empty = first.
	Sheet string `yaml:"sheet"`

	// Sheets configures the credentialed Sheets API strategy.
	Sheets SheetsConfig `yaml:"sheets"`

	// Timeout bounds a single fetch.
	Timeout time.Duration `yaml:"timeout"`
}

// SheetsConfig holds the (key, resource-id, range) triple for the API strategy.
type SheetsConfig struct {
	// KeyEnv is the name of the environment variable holding the API key.
	KeyEnv   string `yaml:"key_env"`
	SheetID  string `yaml:"sheet_id"`
	Range    string `yaml:"range"`
	Endpoint string `yaml:"endpoint"`
}

// Key returns the API key resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (s SheetsConfig) Key() string {
	if s.KeyEnv == "" {
		return ""
	}
	return os.Getenv(s.KeyEnv)
}

// Complete reports whether all three parts of the API triple are available.
func (s SheetsConfig) Complete() bool {
	return s.Key() != "" && s.SheetID != "" && s.Range != ""
}

// EffectiveFormat returns the configured format, or one inferred from the
// export URL's output/format query parameter or file extension.
func (s SourceConfig) EffectiveFormat() string {
	if s.Format != "" {
		return strings.ToLower(s.Format)
	}
	u, err := url.Parse(s.ExportURL)
	if err != nil {
		return FormatCSV
	}
	q := u.Query()
	for _, key := range []string{"output", "format"} {
		if strings.EqualFold(q.Get(key), FormatXLSX) {
			return FormatXLSX
		}
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// RefreshConfig controls the polling cadence.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ServerConfig holds HTTP-side settings for the serve command.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval controls the periodic WebSocket re-broadcast.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// UIDir serves a pre-built renderer from this directory when set.
	UIDir string `yaml:"ui_dir"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NotifyConfig holds notification rules and webhook delivery targets.
type NotifyConfig struct {
	// LeaderChanges sends a notification whenever the rank-1 names change.
	LeaderChanges bool `yaml:"leader_changes"`

	Rules    []NotifyRule    `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// NotifyRule defines one threshold-based condition over the board.
type NotifyRule struct {
	// Name is the human-readable rule identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is an expression like "stale_seconds > 60" or "state == error".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after a rule fires.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applying defaults and validation.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	fillZero(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Display: DisplayConfig{
			Title:      DefaultTitle,
			BrandColor: DefaultBrandColor,
		},
		Source: SourceConfig{
			Timeout: DefaultRequestTimeout,
			Sheets:  SheetsConfig{Endpoint: DefaultSheetsEndpoint},
		},
		Refresh: RefreshConfig{Interval: DefaultRefreshInterval},
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
		},
		Log: LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// fillZero restores defaults for keys present in the file with empty values.
func fillZero(cfg *Config) {
	if cfg.Display.Title == "" {
		cfg.Display.Title = DefaultTitle
	}
	if cfg.Display.BrandColor == "" {
		cfg.Display.BrandColor = DefaultBrandColor
	}
	if cfg.Source.Sheets.Endpoint == "" {
		cfg.Source.Sheets.Endpoint = DefaultSheetsEndpoint
	}
}

// validate checks structural constraints. Source presence is not checked: an
// unconfigured source is reported on every refresh cycle.
func validate(cfg *Config) error {
	if cfg.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive")
	}
	if cfg.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}
	switch strings.ToLower(cfg.Source.Format) {
	case "", FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("source.format %q unknown: want csv|xlsx", cfg.Source.Format)
	}
	if cfg.Source.ExportURL != "" {
		u, err := url.Parse(cfg.Source.ExportURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("source.export_url %q is not an absolute URL", cfg.Source.ExportURL)
		}
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	for i, r := range cfg.Notify.Rules {
		if r.Name == "" {
			return fmt.Errorf("notify.rules[%d]: name is required", i)
		}
		if len(strings.Fields(r.Condition)) != 3 {
			return fmt.Errorf("notify.rules[%d] %q: condition must be \"field op value\"", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("notify.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range cfg.Notify.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("notify.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}
	return nil
}
