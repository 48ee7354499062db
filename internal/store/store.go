// Package store opens the repositories selected by STORE_DRIVER.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"campusafe/internal/config"
	"campusafe/internal/db"
	"campusafe/internal/repository"
)

// Stores bundles the repositories for one backend.
type Stores struct {
	Items repository.ItemRepository
	Users repository.UserRepository

	close func(ctx context.Context) error
}

// Close releases the backend connection.
func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the configured backend. Schema and index setup failures are
// logged and do not stop startup, so the service can come up with the store down.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return &Stores{
			Items: repository.NewMemoryItemRepository(),
			Users: repository.NewMemoryUserRepository(),
		}, nil

	case config.DriverMongo:
		mdb, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, mdb); err != nil {
			log.Warn().Err(err).Msg("mongo index setup failed")
		}
		return &Stores{
			Items: repository.NewMongoItemRepository(mdb),
			Users: repository.NewMongoUserRepository(mdb),
			close: func(ctx context.Context) error { return mdb.Client().Disconnect(ctx) },
		}, nil

	case config.DriverMySQL, config.DriverPostgres, config.DriverSQLite:
		gdb, err := openGorm(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(gdb); err != nil {
			log.Error().Err(err).Str("driver", cfg.StoreDriver).Msg("auto-migrate failed")
		}
		return &Stores{
			Items: repository.NewItemRepository(gdb),
			Users: repository.NewUserRepository(gdb),
			close: func(context.Context) error {
				sqlDB, err := gdb.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func openGorm(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		return db.NewMySQL(cfg.MySQLDSN)
	case config.DriverPostgres:
		return db.NewPostgres(cfg.PostgresDSN)
	default:
		return db.NewSQLite(cfg.SQLitePath)
	}
}
