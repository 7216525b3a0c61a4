package database

import (
	"context"
	"fmt"

	"github.com/Adam-Grimes/CINEMA/internal/config"
	"github.com/Adam-Grimes/CINEMA/internal/repository"
)

// OpenStore opens the document store selected by cfg.StoreDriver and runs
// the schema migration when cfg.AutoMigrate is set.
func OpenStore(ctx context.Context, cfg config.Config) (repository.DocumentRepo, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repository.NewMemoryDocs(), nil

	case config.DriverMySQL:
		db, err := OpenMySQL(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := MigrateMySQL(ctx, db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate mysql: %w", err)
			}
		}
		return repository.NewMySQLDocs(db), nil

	case config.DriverPostgres:
		pool, err := OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return repository.NewPostgresDocs(pool), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Migrate runs the schema migration against an already opened store.
// The memory driver needs none.
func Migrate(ctx context.Context, store repository.DocumentRepo) error {
	switch s := store.(type) {
	case *repository.MySQLDocs:
		return MigrateMySQL(ctx, s.DB())
	case *repository.PostgresDocs:
		return MigratePostgres(ctx, s.Pool())
	}
	return nil
}
