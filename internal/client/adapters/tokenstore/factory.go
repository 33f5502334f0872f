package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"notesync/internal/client/config"
	"notesync/internal/client/ports/store"
	redisdb "notesync/pkg/db/redis"
)

// ErrUnknownDriver возвращается для неизвестного драйвера хранилища.
var ErrUnknownDriver = errors.New("unknown token store driver")

// New создает хранилище по конфигурации. Возвращаемая функция освобождает ресурсы.
func New(ctx context.Context, cfg *config.Config) (store.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.TokenStore.Driver {
	case config.TokenStoreFile, "":
		return NewFileStore(cfg.TokenStore.Dir), noop, nil
	case config.TokenStoreMemory:
		return NewMemoryStore(), noop, nil
	case config.TokenStoreRedis:
		client, err := redisdb.NewClient(ctx, redisdb.Options{
			Address:        cfg.Redis.GetAddress(),
			Password:       cfg.Redis.Password,
			DB:             cfg.Redis.DB,
			PoolSize:       cfg.Redis.PoolSize,
			ConnectTimeout: cfg.Redis.ConnectTimeout,
			ReadTimeout:    cfg.Redis.ReadTimeout,
			WriteTimeout:   cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating redis token store: %w", err)
		}
		redisStore := NewRedisStore(client)
		return redisStore, redisStore.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.TokenStore.Driver)
	}
}
