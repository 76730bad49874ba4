// Command scoreboard serves a live leaderboard fed by a published spreadsheet.
package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/livescores/scoreboard/internal/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "scoreboard",
		Short: "Live leaderboard from a spreadsheet export or the Sheets API",
		Long: `scoreboard polls a published spreadsheet (CSV or XLSX export, or the
Google Sheets values API), ranks participants by their Sum column and shows
the result over HTTP, WebSocket or in the terminal.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	rootCmd.AddCommand(newServeCmd(), newOnceCmd(), newWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and installs the default logger writing
// to w.
func loadConfig(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		setupLogging(w, config.LogConfig{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat})
		slog.Error("failed to load config", "path", configPath, "err", err)
		return nil, err
	}
	setupLogging(w, cfg.Log)
	return cfg, nil
}

func setupLogging(w io.Writer, lc config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	var h slog.Handler
	if strings.EqualFold(lc.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// staleAfter is how old the last good data may get before the board reports
// "stale": three missed refreshes.
func staleAfter(cfg *config.Config) time.Duration {
	return 3 * cfg.Refresh.Interval
}
