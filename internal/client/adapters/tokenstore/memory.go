// Package tokenstore содержит реализации хранилища пары токенов.
package tokenstore

import (
	"context"
	"sync"

	"notesync/internal/client/domain/entities"
	"notesync/internal/client/ports/store"
)

// MemoryStore хранит пару токенов в памяти процесса.
type MemoryStore struct {
	mu    sync.RWMutex
	pair  entities.TokenPair
	saved bool
}

// NewMemoryStore создает пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ store.TokenStore = (*MemoryStore)(nil)

// GetTokens возвращает текущую пару.
func (s *MemoryStore) GetTokens(_ context.Context) (entities.TokenPair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, s.saved
}

// SaveTokens заменяет пару целиком.
func (s *MemoryStore) SaveTokens(_ context.Context, pair entities.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.saved = true
	return nil
}

// ClearTokens удаляет пару.
func (s *MemoryStore) ClearTokens(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = entities.TokenPair{}
	s.saved = false
	return nil
}
