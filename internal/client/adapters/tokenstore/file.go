package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"notesync/internal/client/domain/entities"
	"notesync/internal/client/ports/store"
	"notesync/pkg/logger"
)

// FileName - фиксированное имя файла с парой токенов.
const FileName = "session_tokens.json"

// Константы для логирования.
const (
	LogMethodFileGet   = "FileStore.GetTokens"
	LogMethodFileSave  = "FileStore.SaveTokens"
	LogMethodFileClear = "FileStore.ClearTokens"

	ErrorFailedToReadTokens   = "failed to read tokens"
	ErrorFailedToDecodeTokens = "failed to decode tokens"
	ErrorFailedToWriteTokens  = "failed to write tokens"
	ErrorFailedToClearTokens  = "failed to clear tokens"
)

const (
	dirPerm  fs.FileMode = 0o700
	filePerm fs.FileMode = 0o600
)

// FileStore хранит пару токенов в JSON файле, доступном только владельцу.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создает хранилище в указанном каталоге.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

var _ store.TokenStore = (*FileStore)(nil)

// Path возвращает путь к файлу токенов.
func (s *FileStore) Path() string {
	return s.path
}

// GetTokens читает пару из файла. Отсутствующий или поврежденный файл означает отсутствие пары.
func (s *FileStore) GetTokens(ctx context.Context) (entities.TokenPair, bool) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodFileGet))

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn(ctx, ErrorFailedToReadTokens, zap.Error(err))
		}
		return entities.TokenPair{}, false
	}

	var pair entities.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		log.Warn(ctx, ErrorFailedToDecodeTokens, zap.Error(err))
		return entities.TokenPair{}, false
	}
	if pair.IsZero() {
		return entities.TokenPair{}, false
	}

	return pair, true
}

// SaveTokens атомарно перезаписывает файл: запись во временный файл и переименование.
func (s *FileStore) SaveTokens(ctx context.Context, pair entities.TokenPair) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodFileSave))

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToWriteTokens, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		log.Error(ctx, ErrorFailedToWriteTokens, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToWriteTokens, err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		log.Error(ctx, ErrorFailedToWriteTokens, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToWriteTokens, err)
	}
	tmpName := tmp.Name()

	if err := writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmpName)
		log.Error(ctx, ErrorFailedToWriteTokens, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToWriteTokens, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		log.Error(ctx, ErrorFailedToWriteTokens, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToWriteTokens, err)
	}

	return nil
}

// ClearTokens удаляет файл. Отсутствие файла не считается ошибкой.
func (s *FileStore) ClearTokens(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Log(ctx).Error(ctx, ErrorFailedToClearTokens,
			zap.String("method", LogMethodFileClear), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToClearTokens, err)
	}
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if err := f.Chmod(filePerm); err != nil {
		_ = f.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
