package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/memstore"
	"github.com/statsbasket/internal/postgres"
	"github.com/statsbasket/internal/service"
)

// Open returns the store selected by cfg.Storage.Driver along with a
// function releasing its resources. PostgreSQL migrations run before the
// store is returned.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Info("using in-memory store")
		return memstore.New(), func() {}, nil

	case config.DriverPostgres:
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		repo, err := postgres.NewRepository(&cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := repo.RunMigrations(ctx); err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to PostgreSQL")
		return repo, repo.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
