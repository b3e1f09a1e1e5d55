package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/moviesync/internal/core/config"
	redisclient "github.com/vietddude/moviesync/internal/infra/redis"
	"github.com/vietddude/moviesync/internal/infra/storage"
	"github.com/vietddude/moviesync/internal/infra/storage/memory"
	"github.com/vietddude/moviesync/internal/infra/storage/postgres"
)

// Store is the configured durable store with its lifecycle hooks.
type Store struct {
	storage.KeyValueStore
	Driver string

	db          *postgres.DB
	redisClient *redisclient.Client
}

// OpenStore connects the backend selected by cfg.Storage.Driver. The
// postgres schema is migrated on open.
func OpenStore(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	switch cfg.Storage.Driver {
	case config.DriverRedis:
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("Using Redis storage")
		return &Store{
			KeyValueStore: redisclient.NewKVStore(client),
			Driver:        config.DriverRedis,
			redisClient:   client,
		}, nil

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("Using PostgreSQL storage")
		return &Store{
			KeyValueStore: postgres.NewKVRepo(db),
			Driver:        config.DriverPostgres,
			db:            db,
		}, nil

	case config.DriverMemory, "":
		log.Info("Using Memory storage")
		return &Store{KeyValueStore: memory.NewMemoryStorage(), Driver: config.DriverMemory}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Health checks the backend connection.
func (s *Store) Health(ctx context.Context) error {
	switch {
	case s.db != nil:
		return s.db.Health(ctx)
	case s.redisClient != nil:
		return s.redisClient.Health(ctx)
	}
	return nil
}

// StartMetricsCollector reports connection pool usage for SQL backends.
func (s *Store) StartMetricsCollector(ctx context.Context) {
	if s.db != nil {
		s.db.StartMetricsCollector(ctx)
	}
}

// Close releases the backend connection.
func (s *Store) Close() error {
	switch {
	case s.db != nil:
		return s.db.Close()
	case s.redisClient != nil:
		return s.redisClient.Close()
	}
	return nil
}
