package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/livescores/scoreboard/internal/refresh"
	"github.com/livescores/scoreboard/internal/store"
	"github.com/livescores/scoreboard/internal/tui"
	"github.com/livescores/scoreboard/pkg/types"
)

func newOnceCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Fetch and rank once, print the board and exit",
		Long: `once runs a single refresh cycle and prints the ranked board. It exits
non-zero when the fetch fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return once(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the board as JSON")
	return cmd
}

func once(out io.Writer, asJSON bool) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg.Display)
	res := refresh.New(cfg.Source, cfg.Refresh.Interval, st, nil).Cycle(ctx)
	b := st.Snapshot()

	if err := printBoard(out, b, asJSON); err != nil {
		return err
	}
	if res.Err != nil {
		return fmt.Errorf("refresh failed: %s", refresh.Message(res.Err))
	}
	return nil
}

func printBoard(out io.Writer, b types.Board, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
	if w, ok := terminalWidth(out); ok {
		_, err := io.WriteString(out, tui.Render(b, w, b.GeneratedAt))
		return err
	}
	return tui.WritePlain(out, b)
}

// terminalWidth reports the width of out when it is a terminal.
func terminalWidth(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, true
	}
	return w, true
}
