// Package ports определяет порты эталонного сервера заметок.
package ports

import (
	"context"

	"notesync/internal/mockserver/domain"
)

// UserRepository хранит учетные записи.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error

	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenRepository хранит токены обновления.
type TokenRepository interface {
	StoreRefreshToken(ctx context.Context, token domain.RefreshToken) error

	FindRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)

	// RevokeRefreshToken отзывает токен и сообщает, был ли он активен до вызова.
	RevokeRefreshToken(ctx context.Context, token string) (bool, error)
}

// NoteRepository хранит заметки.
type NoteRepository interface {
	CreateNote(ctx context.Context, note *domain.Note) error

	GetNote(ctx context.Context, userID, noteID string) (*domain.Note, error)

	ListNotes(ctx context.Context, userID string, limit, offset int) ([]domain.Note, int, error)

	UpdateNote(ctx context.Context, note *domain.Note) error

	DeleteNote(ctx context.Context, userID, noteID string) error
}

// Repository объединяет все хранилища сервера.
type Repository interface {
	UserRepository
	TokenRepository
	NoteRepository
}
