package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// runtimeDependencies — репозитории выбранного хранилища.
type runtimeDependencies struct {
	lines          domain.OrderLineRepository
	cashboxes      domain.CashboxRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			lines:     memory.NewOrderLineRepository(),
			cashboxes: memory.NewCashboxRepository(),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires STOREFRONT_POSTGRES_DSN")
		}
		pool := postgres.DefaultPoolOptions()
		if cfg.PostgresMaxConns > 0 {
			pool.MaxOpenConns = cfg.PostgresMaxConns
		}
		store, err := postgres.OpenWithPool(ctx, cfg.PostgresDSN, pool)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
			logger.Info("postgres schema is up to date")
		}
		logger.Info("using postgres storage")
		return &runtimeDependencies{
			lines:          postgres.NewOrderLineRepository(store),
			cashboxes:      postgres.NewCashboxRepository(store),
			storageChecker: healthcheck.NewPingChecker("postgres", store),
			closeFn:        store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}
