// Package redis предоставляет создание клиента Redis с проверкой соединения.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notesync/pkg/logger"
)

// Константы для логирования.
const (
	LogConnecting = "connecting to redis"
	LogConnected  = "successfully connected to redis"

	ErrConnect = "failed to connect to redis"
)

// Options содержит настройки подключения к Redis.
type Options struct {
	Address        string
	Password       string
	DB             int
	PoolSize       int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// NewClient создает клиент Redis и проверяет соединение командой PING.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	log := logger.Log(ctx).With(zap.String("address", opts.Address), zap.Int("db", opts.DB))
	log.Debug(ctx, LogConnecting)

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.ConnectTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn(ctx, "failed to close redis client", zap.Error(closeErr))
		}
		log.Error(ctx, ErrConnect, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrConnect, err)
	}

	log.Debug(ctx, LogConnected)
	return client, nil
}
