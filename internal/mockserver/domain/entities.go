// Package domain содержит сущности и ошибки эталонного сервера заметок.
package domain

import (
	"errors"
	"time"
)

// Ошибки предметной области.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrInvalidPassword     = errors.New("password must be at least 8 characters")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrExpiredAccessToken  = errors.New("access token has expired")
	ErrNoteNotFound        = errors.New("note not found")
	ErrNoteAlreadyExists   = errors.New("note with this id already exists")
	ErrEmptyTitle          = errors.New("note title is required")
	ErrInvalidPage         = errors.New("page and size must be positive")
)

// MinPasswordLength - минимальная длина пароля.
const MinPasswordLength = 8

// User - учетная запись.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken - выданный токен обновления.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	IsRevoked bool
}

// Active сообщает, можно ли обменять токен на новую пару.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

// Note - заметка пользователя.
type Note struct {
	ID           string
	UserID       string
	Title        string
	Content      string
	CreatedAt    time.Time
	LastEditedAt time.Time
}

// TokenPair - пара токенов, выдаваемая при входе и обновлении.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
