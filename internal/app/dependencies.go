package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/shopcart/internal/health"
	"github.com/vladislavdragonenkov/shopcart/internal/service/catalog"
	"github.com/vladislavdragonenkov/shopcart/internal/storage/memory"
	"github.com/vladislavdragonenkov/shopcart/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/shopcart/internal/storage/redis"
)

// runtimeDependencies — внешние зависимости корзины, выбранные по конфигурации.
type runtimeDependencies struct {
	catalog   domain.CatalogService
	breaker   *catalog.CircuitBreaker
	pingers   map[string]func(ctx context.Context) error
	snapshots domain.SnapshotStore
	closeFn   func() error
}

// register добавляет проверки зависимостей в health handler.
func (d *runtimeDependencies) register(h *healthcheck.Handler) {
	for name, ping := range d.pingers {
		h.RegisterChecker(name, healthcheck.NewSimpleChecker(name, ping))
	}
	if d.breaker != nil {
		breaker := d.breaker
		h.RegisterChecker("catalog_breaker", healthcheck.NewStateChecker("catalog_breaker", func() (healthcheck.Status, string) {
			state := breaker.State()
			if state == catalog.CircuitClosed {
				return healthcheck.StatusHealthy, state.String()
			}
			return healthcheck.StatusDegraded, state.String()
		}))
	}
}

func (d *runtimeDependencies) close() error {
	if d == nil || d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	deps := &runtimeDependencies{pingers: make(map[string]func(ctx context.Context) error)}

	if err := initCatalog(deps, cfg, logger); err != nil {
		return nil, err
	}
	if err := initSnapshotStore(ctx, deps, cfg, logger); err != nil {
		return nil, err
	}
	return deps, nil
}

func initCatalog(deps *runtimeDependencies, cfg Config, logger *log.Entry) error {
	var svc domain.CatalogService

	url := strings.TrimSpace(cfg.CatalogURL)
	switch {
	case url != "":
		client := catalog.NewClient(url,
			catalog.WithTimeout(cfg.CatalogTimeout),
			catalog.WithClientLogger(logger.WithField("layer", "catalog")),
		)
		deps.pingers["catalog"] = client.Ping
		svc = client
		logger.WithField("url", url).Info("catalog client initialized")
	case cfg.AllowMockIntegrations:
		svc = catalog.NewDemoService()
		logger.Warn("catalog url is not set, using in-memory demo catalog")
	default:
		return errors.New("catalog url is required when mock integrations are disabled")
	}

	if cfg.BreakerMaxFailures > 0 {
		deps.breaker = catalog.NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout, logger.WithField("layer", "catalog-breaker"))
		svc = catalog.NewBreakerService(svc, deps.breaker)
	}
	deps.catalog = svc
	return nil
}

func initSnapshotStore(ctx context.Context, deps *runtimeDependencies, cfg Config, logger *log.Entry) error {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		deps.snapshots = memory.NewSnapshotStore()
		logger.Info("using in-memory cart snapshot storage")
		return nil

	case StorageDriverRedis:
		store, err := redisstore.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("init redis storage: %w", err)
		}
		deps.snapshots = store
		deps.pingers["storage"] = store.Ping
		deps.closeFn = store.Close
		logger.WithField("addr", cfg.RedisAddr).Info("using redis cart snapshot storage")
		return nil

	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return errors.New("postgres dsn is required for postgres storage driver")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		deps.snapshots = postgres.NewSnapshotRepository(store)
		deps.pingers["storage"] = store.Ping
		deps.closeFn = store.Close
		logger.Info("using postgres cart snapshot storage")
		return nil

	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
