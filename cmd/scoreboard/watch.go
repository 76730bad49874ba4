package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/livescores/scoreboard/internal/refresh"
	"github.com/livescores/scoreboard/internal/store"
	"github.com/livescores/scoreboard/internal/tui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the refresh loop and show the board live in the terminal",
		Long: `watch keeps the board on screen and redraws it after every refresh. When
stdout is not a terminal it prints a plain table after every change instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return watch(cmd.OutOrStdout())
		},
	}
}

func watch(out io.Writer) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg.Display)
	orch := refresh.New(cfg.Source, cfg.Refresh.Interval, st, nil)

	if _, ok := terminalWidth(out); ok {
		// The TUI owns the screen, so logs are discarded.
		setupLogging(io.Discard, cfg.Log)
		go orch.Run(ctx)
		err := tui.Run(ctx, st)
		cancel()
		return err
	}

	changes, unsubscribe := st.Subscribe()
	defer unsubscribe()
	go orch.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			b := st.Snapshot()
			if b.Loading {
				continue
			}
			if err := tui.WritePlain(out, b); err != nil {
				slog.Error("watch: write failed", "err", err)
				return err
			}
			if _, err := io.WriteString(out, "\n"); err != nil {
				return err
			}
		}
	}
}
