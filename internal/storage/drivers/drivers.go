// Package drivers opens the ledger store named by the storage configuration.
package drivers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sheikh-saqib/balance-forecast-bot/internal/config"
	interfaces "github.com/sheikh-saqib/balance-forecast-bot/internal/interfaces"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage/memory"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage/postgres"
	"github.com/sheikh-saqib/balance-forecast-bot/internal/storage/sqlite"
)

// Open returns the configured store and a function releasing it.
func Open(ctx context.Context, cfg config.StorageConfig) (interfaces.LedgerStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory storage, data is lost on exit")
		return memory.NewMemoryLedgerStore(), func() error { return nil }, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("opened sqlite storage", "path", cfg.SQLitePath)
		return store, store.Close, nil

	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("opened postgres storage")
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
