// Package persistence opens the configured garment snapshot backend.
package persistence

import (
	"context"
	"fmt"

	"github.com/pantheon-hub/underliv/config"
	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence/memory"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence/postgres"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence/redis"
	"github.com/pantheon-hub/underliv/internal/infrastructure/persistence/sqlite"
	"github.com/pantheon-hub/underliv/pkg/logger"
)

// Store is a snapshot store with a lifecycle.
type Store interface {
	garment.SnapshotStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.GarmentStore)(nil)
	_ Store = (*redis.Store)(nil)
)

// Open connects to the backend named by cfg.Store.Backend.
// PostgreSQL migrations run here when cfg.Database.MigrateOnStart is set.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.Component("persistence"), logger.Backend(string(cfg.Store.Backend)))

	switch cfg.Store.Backend {
	case config.StoreMemory:
		log.Warn("using in-memory store, garments are lost on exit")
		return memory.New(), nil

	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite store opened", logger.String("path", store.Path()))
		return store, nil

	case config.StorePostgres:
		return openPostgres(ctx, cfg.Database, log)

	case config.StoreRedis:
		rc := cfg.Redis
		store, err := redis.NewStore(ctx, redis.Config{
			Host:         rc.Host,
			Port:         rc.Port,
			Password:     rc.Password,
			DB:           rc.DB,
			PoolSize:     rc.PoolSize,
			MaxRetries:   rc.MaxRetries,
			DialTimeout:  rc.DialTimeout,
			ReadTimeout:  rc.ReadTimeout,
			WriteTimeout: rc.WriteTimeout,
			KeyPrefix:    rc.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		log.Info("redis store connected", logger.String("addr", fmt.Sprintf("%s:%d", rc.Host, rc.Port)))
		return store, nil

	default:
		return nil, fmt.Errorf("persistence: unknown backend %q", cfg.Store.Backend)
	}
}

func openPostgres(ctx context.Context, dc config.DatabaseConfig, log *logger.Logger) (Store, error) {
	conn, err := postgres.Connect(ctx, dc.URL, postgres.PoolSettings{
		MaxConns:        int32(dc.MaxConns),
		MinConns:        int32(dc.MinConns),
		MaxConnLifetime: dc.ConnMaxLifetime,
		MaxConnIdleTime: dc.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}

	if dc.MigrateOnStart {
		migrator := postgres.NewMigrator(conn)
		if err := migrator.Migrate(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		if status, err := migrator.Status(ctx); err != nil {
			log.Warn("failed to get migration status", logger.Err(err))
		} else {
			applied := 0
			for _, m := range status {
				if m.IsApplied {
					applied++
				}
			}
			log.Info("migrations completed", logger.Int("applied", applied), logger.Int("total", len(status)))
		}
	}

	log.Info("postgres store connected")
	return postgres.NewGarmentStore(conn), nil
}
