// Package postgres содержит подключение к PostgreSQL и применение миграций.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// Константы для сообщений logger.
const (
	LogConnecting        = "connecting to Postgres database"
	LogConnected         = "successfully connected to Postgres"
	LogClosing           = "closing Postgres connection pool"
	LogMigrationsApplied = "database migrations successfully applied"
	LogNoMigrations      = "database schema is up to date"
)

// Константы для сообщений об ошибках.
const (
	ErrParseConfig  = "failed to parse connection config"
	ErrCreatePool   = "failed to create connection pool"
	ErrPingDatabase = "failed to ping database"
)

// Options содержит параметры пула соединений.
type Options struct {
	DSN      string
	MinConns int
	MaxConns int
}

// Database - пул соединений с Postgres.
type Database struct {
	pool *pgxpool.Pool
}

// poolConfig разбирает DSN и применяет размеры пула.
func poolConfig(opts Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrParseConfig, err)
	}
	if opts.MinConns > 0 {
		cfg.MinConns = int32(opts.MinConns) // #nosec G115
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns) // #nosec G115
	}
	return cfg, nil
}

// New открывает пул и проверяет доступность базы.
func New(ctx context.Context, opts Options) (*Database, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogConnecting)

	cfg, err := poolConfig(opts)
	if err != nil {
		log.Error(ctx, ErrParseConfig, zap.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		log.Error(ctx, ErrCreatePool, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrCreatePool, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error(ctx, ErrPingDatabase, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrPingDatabase, err)
	}

	log.Info(ctx, LogConnected, zap.Int32("max_conns", cfg.MaxConns))
	return &Database{pool: pool}, nil
}

// Pool возвращает пул соединений.
func (db *Database) Pool() *pgxpool.Pool {
	return db.pool
}

// Close закрывает пул.
func (db *Database) Close(ctx context.Context) {
	logger.Log(ctx).Info(ctx, LogClosing)
	db.pool.Close()
}
