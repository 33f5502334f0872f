// Package store определяет порт хранилища пары токенов.
package store

import (
	"context"

	"notesync/internal/client/domain/entities"
)

// TokenStore хранит единственную текущую пару токенов.
// Ошибка чтения трактуется как отсутствие пары: нечитаемое хранилище
// эквивалентно состоянию "не выполнен вход".
type TokenStore interface {
	GetTokens(ctx context.Context) (entities.TokenPair, bool)

	SaveTokens(ctx context.Context, pair entities.TokenPair) error

	ClearTokens(ctx context.Context) error
}
