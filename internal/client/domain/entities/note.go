package entities

import (
	"time"

	"github.com/google/uuid"
)

// Note представляет заметку. Идентификатор назначает сервер,
// после создания авторитетной считается копия, возвращенная сервером.
type Note struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	LastEditedAt time.Time `json:"lastEditedAt"`
}

// NoteResponse содержит страницу заметок и их общее количество.
type NoteResponse struct {
	Notes []Note `json:"notes"`
	Total int    `json:"total"`
}

// UpdateNoteRequest содержит изменяемые поля заметки.
type UpdateNoteRequest struct {
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	LastEditedAt time.Time `json:"lastEditedAt"`
}

// NewDraft создает локальное представление заметки до отправки на сервер.
func NewDraft(title, content string) Note {
	now := time.Now().UTC()
	return Note{
		ID:           uuid.New().String(),
		Title:        title,
		Content:      content,
		CreatedAt:    now,
		LastEditedAt: now,
	}
}
