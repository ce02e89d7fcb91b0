package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/config"
	"github.com/gmllt/kban/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "kban",
	Short:        "Kanban board",
	Long:         "kban keeps a kanban board of lists and cards in a pluggable key-value backend.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
}

// loadConfig reads the config file. The default path may be absent; an
// explicit --config must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, cfg.Log.NewLogger(os.Stderr), nil
}

func openAdapter(ctx context.Context, cfg *config.Config) (*storage.Adapter, error) {
	kv, err := cfg.Storage.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	return storage.NewAdapter(kv, cfg.Storage.Key), nil
}

// readBoard loads the stored board without writing anything back. When
// nothing is stored the default lists are shown.
func readBoard(ctx context.Context, cfg *config.Config, logger *slog.Logger) (board.Snapshot, error) {
	adapter, err := openAdapter(ctx, cfg)
	if err != nil {
		return board.Snapshot{}, err
	}
	defer func() { _ = adapter.Close() }()

	snap, found, err := adapter.Load()
	switch {
	case errors.Is(err, board.ErrCorrupt):
		return board.Snapshot{}, fmt.Errorf("stored board %q is unreadable: %w", adapter.Key(), err)
	case err != nil:
		return board.Snapshot{}, err
	case !found:
		s, err := board.Open(nil, logger)
		if err != nil {
			return board.Snapshot{}, err
		}
		return s.Snapshot(), nil
	}
	return board.NewFromSnapshot(snap).Snapshot(), nil
}
