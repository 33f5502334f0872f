package mockserver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"notesync/internal/mockserver/adapters/memory"
	"notesync/internal/mockserver/adapters/postgres"
	"notesync/internal/mockserver/config"
	"notesync/internal/mockserver/ports"
	pgdb "notesync/pkg/db/postgres"
	"notesync/pkg/logger"
)

// Константы для логирования и ошибок.
const (
	LogStorageSelected = "Storage selected"

	ErrUnknownStorage = "unknown storage driver"
	ErrConnectStorage = "failed to connect storage"
	ErrMigrateStorage = "failed to migrate storage"
)

// Storage - хранилище сервера и функция освобождения его ресурсов.
type Storage struct {
	Repository ports.Repository
	Close      func(ctx context.Context) error
}

// NewMemoryStorage создает хранилище в памяти.
func NewMemoryStorage() *Storage {
	return &Storage{
		Repository: memory.NewRepository(),
		Close:      func(context.Context) error { return nil },
	}
}

// NewStorage создает хранилище по cfg.Storage.Driver. Для postgres
// применяются миграции.
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	logger.Log(ctx).Info(ctx, LogStorageSelected, zap.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return NewMemoryStorage(), nil
	case config.StoragePostgres:
		return newPostgresStorage(ctx, &cfg.Postgres)
	default:
		return nil, fmt.Errorf("%s: %q", ErrUnknownStorage, cfg.Storage.Driver)
	}
}

func newPostgresStorage(ctx context.Context, cfg *config.PostgresConfig) (*Storage, error) {
	if err := pgdb.Migrate(ctx, cfg.GetConnectionURL(), cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMigrateStorage, err)
	}

	db, err := pgdb.New(ctx, pgdb.Options{
		DSN:      cfg.GetDSN(),
		MinConns: cfg.MinConn,
		MaxConns: cfg.MaxConn,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConnectStorage, err)
	}

	return &Storage{
		Repository: postgres.NewRepository(db.Pool()),
		Close: func(ctx context.Context) error {
			db.Close(ctx)
			return nil
		},
	}, nil
}
