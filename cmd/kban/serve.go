package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/server"
	"github.com/gmllt/kban/internal/storage"
)

var addrOverride string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrOverride, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addrOverride != "" {
		cfg.Server.Addr = addrOverride
	}

	adapter, err := openAdapter(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	store, err := board.Open(adapter, logger)
	var perr *board.PersistenceError
	if errors.As(err, &perr) {
		logger.Warn("default board created but not saved", "error", err)
		err = nil
	}
	if err != nil {
		_ = adapter.Close()
		return err
	}

	httpServer := server.New(store, adapter, cfg.Server, logger).HTTPServer()

	done := make(chan struct{})
	go gracefulShutdown(httpServer, adapter, logger, done)

	logger.Info("starting server", "addr", httpServer.Addr, "backend", cfg.Storage.Backend, "key", adapter.Key())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	<-done
	logger.Info("graceful shutdown complete")
	return nil
}

func gracefulShutdown(srv *http.Server, adapter *storage.Adapter, logger *slog.Logger, done chan<- struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxTimeout); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	if err := adapter.Close(); err != nil {
		logger.Error("closing storage", "error", err)
	}

	close(done)
}
