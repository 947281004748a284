package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/memstore"
	"github.com/statsbasket/internal/service"
	"github.com/statsbasket/internal/storage"
)

var (
	configPath string
	backupPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "statsctl",
	Short: "Inspect games and manage backups of the stats store",
	Long: `statsctl works directly against the configured store.

With --backup the commands run against a JSON backup loaded into memory
instead, which needs no database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&backupPath, "backup", "", "Read data from a JSON backup instead of the store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openService builds a game service over either the configured store or a
// backup file. The returned function releases the store.
func openService(ctx context.Context) (*service.GameService, func(), error) {
	var logOut io.Writer = io.Discard
	if verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	if backupPath != "" {
		backup, err := readBackup(backupPath)
		if err != nil {
			return nil, nil, err
		}
		svc := service.NewGameService(memstore.New(), &cfg.Roster, &cfg.Reports, logger)
		if err := svc.Import(ctx, backup); err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", backupPath, err)
		}
		return svc, func() {}, nil
	}

	store, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return service.NewGameService(store, &cfg.Roster, &cfg.Reports, logger), closeStore, nil
}

func readBackup(path string) (*domain.Backup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening backup: %w", err)
	}
	defer f.Close()
	return decodeBackup(f)
}
