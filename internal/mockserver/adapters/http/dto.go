package http

import (
	"time"

	"notesync/internal/mockserver/domain"
)

// RegisterRequest содержит данные для регистрации.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse содержит данные созданной учетной записи.
type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginRequest содержит учетные данные для входа.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest содержит токен обновления. Используется также при выходе.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse содержит пару токенов.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NoteRequest содержит данные заметки для создания и обновления.
type NoteRequest struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	LastEditedAt time.Time `json:"lastEditedAt"`
}

// Note представляет заметку в ответе.
type Note struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	LastEditedAt time.Time `json:"lastEditedAt"`
}

// ListNotesResponse содержит страницу заметок и общее количество.
type ListNotesResponse struct {
	Notes []Note `json:"notes"`
	Total int    `json:"total"`
}

func toNote(note *domain.Note) Note {
	return Note{
		ID:           note.ID,
		Title:        note.Title,
		Content:      note.Content,
		CreatedAt:    note.CreatedAt,
		LastEditedAt: note.LastEditedAt,
	}
}

func toTokenResponse(pair domain.TokenPair) TokenResponse {
	return TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
}
