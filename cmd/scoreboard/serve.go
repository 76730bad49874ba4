package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/livescores/scoreboard/internal/api"
	"github.com/livescores/scoreboard/internal/config"
	"github.com/livescores/scoreboard/internal/metrics"
	"github.com/livescores/scoreboard/internal/notify"
	"github.com/livescores/scoreboard/internal/refresh"
	"github.com/livescores/scoreboard/internal/store"
	"github.com/livescores/scoreboard/internal/ws"
	"github.com/livescores/scoreboard/pkg/types"
)

func newServeCmd() *cobra.Command {
	var uiDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh loop and serve the board over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(uiDir)
		},
	}
	cmd.Flags().StringVar(&uiDir, "ui-dir", "", "serve a built renderer UI from this directory; overrides server.ui_dir")
	return cmd
}

func serve(uiDir string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	if uiDir == "" {
		uiDir = cfg.Server.UIDir
	}

	slog.Info("scoreboard starting",
		"config", configPath,
		"http_port", cfg.Server.HTTPPort,
		"refresh_interval", cfg.Refresh.Interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg.Display)
	orch := refresh.New(cfg.Source, cfg.Refresh.Interval, st, nil)

	reg := metrics.New()
	orch.OnCycle(reg.Observe)

	alerts := notify.New(cfg.Notify, staleAfter(cfg))
	orch.OnPublish(alerts.Evaluate)
	orch.OnPublish(boardLog)
	go alerts.Run(ctx, st.Snapshot, cfg.Refresh.Interval)

	hub := ws.New(st, cfg.Server.BroadcastInterval)
	reg.SetClientCounter(hub.Count)
	go hub.Run(ctx)

	go orch.Run(ctx)

	current := cfg
	go func() {
		if err := config.Watch(ctx, configPath, func(updated *config.Config) {
			applyReload(current, updated, st, orch)
			current = updated
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/api/", api.New(st, alerts, staleAfter(cfg)))
	mux.Handle("/ws/stream", hub)
	mux.Handle("/metrics", reg)
	if uiDir != "" {
		mux.Handle("/", spaHandler(uiDir))
		slog.Info("serving UI static files", "dir", uiDir)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		slog.Error("HTTP server stopped", "err", err)
		return err
	}

	slog.Info("scoreboard shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	return httpSrv.Shutdown(shutdownCtx)
}

// applyReload pushes a reloaded config into the running pipeline. Display
// changes apply at once; a changed source or interval restarts the cadence.
func applyReload(prev, next *config.Config, st *store.Store, orch *refresh.Orchestrator) {
	setupLogging(os.Stdout, next.Log)

	if !reflect.DeepEqual(prev.Display, next.Display) {
		st.SetDisplay(next.Display)
		slog.Info("config: display updated", "title", next.Display.Title)
	}
	if !reflect.DeepEqual(prev.Source, next.Source) || prev.Refresh.Interval != next.Refresh.Interval {
		orch.Reconfigure(next.Source, next.Refresh.Interval)
	}
	if !reflect.DeepEqual(prev.Server, next.Server) || !reflect.DeepEqual(prev.Notify, next.Notify) {
		slog.Warn("config: server and notify changes take effect after restart")
	}
}

// spaHandler serves files from dir and falls back to index.html for unknown
// paths so client-side routes resolve.
func spaHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}

// boardLog logs each published board at debug level.
func boardLog(b types.Board) {
	slog.Debug("board published",
		"cycle", b.CycleID,
		"entries", len(b.Entries),
		"leaders", b.Leaders(),
	)
}
