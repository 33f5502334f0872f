// Package memory содержит хранилище эталонного сервера в памяти процесса.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notesync/internal/mockserver/domain"
	"notesync/internal/mockserver/ports"
)

// Repository реализует ports.Repository в памяти.
type Repository struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	tokens map[string]domain.RefreshToken
	notes  map[string]domain.Note
}

var _ ports.Repository = (*Repository)(nil)

// NewRepository создает пустое хранилище.
func NewRepository() *Repository {
	return &Repository{
		users:  make(map[string]domain.User),
		tokens: make(map[string]domain.RefreshToken),
		notes:  make(map[string]domain.Note),
	}
}

// CreateUser сохраняет пользователя и назначает ему идентификатор.
func (r *Repository) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := r.users[email]; ok {
		return domain.ErrEmailAlreadyExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	r.users[email] = *user
	return nil
}

// FindUserByEmail ищет пользователя без учета регистра.
func (r *Repository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

// StoreRefreshToken сохраняет токен обновления.
func (r *Repository) StoreRefreshToken(_ context.Context, token domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

// FindRefreshToken ищет токен обновления.
func (r *Repository) FindRefreshToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidRefreshToken
	}
	return &stored, nil
}

// RevokeRefreshToken отзывает токен.
func (r *Repository) RevokeRefreshToken(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tokens[token]
	if !ok || stored.IsRevoked {
		return false, nil
	}
	stored.IsRevoked = true
	r.tokens[token] = stored
	return true, nil
}

func noteKey(userID, noteID string) string {
	return userID + "/" + noteID
}

// CreateNote сохраняет заметку. Идентификатор уникален в пределах пользователя.
func (r *Repository) CreateNote(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := noteKey(note.UserID, note.ID)
	if _, ok := r.notes[key]; ok {
		return domain.ErrNoteAlreadyExists
	}
	r.notes[key] = *note
	return nil
}

// GetNote возвращает заметку пользователя.
func (r *Repository) GetNote(_ context.Context, userID, noteID string) (*domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, ok := r.notes[noteKey(userID, noteID)]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	return &note, nil
}

// ListNotes возвращает страницу заметок пользователя, последние измененные первыми.
func (r *Repository) ListNotes(_ context.Context, userID string, limit, offset int) ([]domain.Note, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := make([]domain.Note, 0)
	for _, note := range r.notes {
		if note.UserID == userID {
			owned = append(owned, note)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].LastEditedAt.Equal(owned[j].LastEditedAt) {
			return owned[i].ID < owned[j].ID
		}
		return owned[i].LastEditedAt.After(owned[j].LastEditedAt)
	})

	total := len(owned)
	if offset >= total {
		return []domain.Note{}, total, nil
	}
	end := min(offset+limit, total)
	return owned[offset:end], total, nil
}

// UpdateNote заменяет заголовок, содержимое и время изменения.
func (r *Repository) UpdateNote(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := noteKey(note.UserID, note.ID)
	stored, ok := r.notes[key]
	if !ok {
		return domain.ErrNoteNotFound
	}
	stored.Title = note.Title
	stored.Content = note.Content
	stored.LastEditedAt = note.LastEditedAt
	r.notes[key] = stored
	*note = stored
	return nil
}

// DeleteNote удаляет заметку.
func (r *Repository) DeleteNote(_ context.Context, userID, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := noteKey(userID, noteID)
	if _, ok := r.notes[key]; !ok {
		return domain.ErrNoteNotFound
	}
	delete(r.notes, key)
	return nil
}
