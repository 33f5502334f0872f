package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notesync/internal/client/domain/entities"
	"notesync/internal/client/ports/store"
	"notesync/pkg/logger"
)

// RedisKey - фиксированный ключ пары токенов.
const RedisKey = "notesync:session:tokens"

// Константы для логирования.
const (
	LogMethodRedisGet   = "RedisStore.GetTokens"
	LogMethodRedisSave  = "RedisStore.SaveTokens"
	LogMethodRedisClear = "RedisStore.ClearTokens"

	ErrorFailedToGet    = "failed to get tokens from redis"
	ErrorFailedToSet    = "failed to set tokens in redis"
	ErrorFailedToDelete = "failed to delete tokens from redis"
	ErrorFailedToClose  = "failed to close redis connection"
)

// RedisStore хранит пару токенов в Redis под фиксированным ключом без TTL.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore создает хранилище поверх готового клиента.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: RedisKey}
}

var _ store.TokenStore = (*RedisStore)(nil)

// GetTokens читает пару. Ошибки Redis и разбора означают отсутствие пары.
func (s *RedisStore) GetTokens(ctx context.Context) (entities.TokenPair, bool) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodRedisGet), zap.String("key", s.key))

	value, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn(ctx, ErrorFailedToGet, zap.Error(err))
		}
		return entities.TokenPair{}, false
	}

	var pair entities.TokenPair
	if err := json.Unmarshal(value, &pair); err != nil {
		log.Warn(ctx, ErrorFailedToDecodeTokens, zap.Error(err))
		return entities.TokenPair{}, false
	}
	if pair.IsZero() {
		return entities.TokenPair{}, false
	}
	return pair, true
}

// SaveTokens заменяет пару целиком.
func (s *RedisStore) SaveTokens(ctx context.Context, pair entities.TokenPair) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodRedisSave), zap.String("key", s.key))

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToSet, err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		log.Error(ctx, ErrorFailedToSet, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToSet, err)
	}
	return nil
}

// ClearTokens удаляет ключ.
func (s *RedisStore) ClearTokens(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToDelete,
			zap.String("method", LogMethodRedisClear), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDelete, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToClose, err)
	}
	return nil
}
